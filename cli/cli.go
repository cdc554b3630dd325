// ABOUTME: Root command tree for the crmview CLI
// ABOUTME: Global flags plus one subcommand group per CRM resource
package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
)

type CLI struct {
	Debug   bool             `help:"Enable debug logging."`
	EnvFile string           `name:"env-file" help:"Additional .env file to load." type:"path"`
	JSON    bool             `help:"Print JSON instead of tables."`
	Refresh bool             `help:"Ignore cached data and fetch from the server."`
	Version kong.VersionFlag `help:"Show version and exit."`

	Contacts      ContactsCmd      `cmd:"" help:"List and edit contacts."`
	Organizations OrganizationsCmd `cmd:"" aliases:"orgs" help:"List and edit organizations."`
	Interactions  InteractionsCmd  `cmd:"" help:"List and log interactions."`
	Tags          TagsCmd          `cmd:"" help:"List and create tags."`
	Settings      SettingsCmd      `cmd:"" help:"Show or change CRM settings (admin)."`
	Search        SearchCmd        `cmd:"" help:"Search contacts, organizations, interactions and tags."`
	Viz           VizCmd           `cmd:"" help:"Render relationship graphs."`
	Dashboard     DashboardCmd     `cmd:"" help:"Show contact and activity totals."`
	Cache         CacheCmd         `cmd:"" help:"Inspect or prune cached responses."`
	TUI           TUICmd           `cmd:"" name:"tui" help:"Open the interactive terminal UI."`
}

// Parser builds the kong parser for c.
func Parser(c *CLI, version string, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("crmview"),
		kong.Description("Browse and edit CRM data from the terminal."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	}, opts...)
	return kong.New(c, opts...)
}

func parseID(kind, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID %q", kind, s)
	}
	return id, nil
}

func parseIDs(kind string, values []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, v := range values {
		id, err := parseID(kind, v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func optionalID(kind, s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := parseID(kind, s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
