// ABOUTME: Cache maintenance CLI commands
// ABOUTME: Lists persisted snapshot keys and prunes old ones
package cli

import (
	"time"
)

type CacheCmd struct {
	Keys  CacheKeysCmd  `cmd:"" default:"withargs" help:"List cached keys."`
	Prune CachePruneCmd `cmd:"" help:"Delete cached responses older than a cutoff."`
	Clear CacheClearCmd `cmd:"" help:"Delete cached responses under a key prefix."`
}

type CacheKeysCmd struct {
	Prefix string `arg:"" optional:"" help:"Only keys starting with this prefix, e.g. contacts."`
}

func (c *CacheKeysCmd) Run(a *App) error {
	keys, err := a.Store.Keys(c.Prefix)
	if err != nil {
		return err
	}
	if a.JSON {
		return a.printJSON(keys)
	}
	for _, k := range keys {
		a.printf("%s\n", k)
	}
	a.Logger.Debug().Int("keys", len(keys)).Str("path", a.Config.StorePath()).Msg("cache keys listed")
	return nil
}

type CachePruneCmd struct {
	OlderThan time.Duration `help:"Age cutoff." default:"168h"`
}

func (c *CachePruneCmd) Run(a *App) error {
	n, err := a.Store.Prune(time.Now().Add(-c.OlderThan))
	if err != nil {
		return err
	}
	a.printf("✓ Pruned %d cached responses\n", n)
	return nil
}

type CacheClearCmd struct {
	Prefix string `arg:"" optional:"" help:"Key prefix; empty clears everything."`
}

func (c *CacheClearCmd) Run(a *App) error {
	if err := a.Store.DeletePrefix(c.Prefix); err != nil {
		return err
	}
	a.Cache.Invalidate(c.Prefix)
	a.printf("✓ Cleared cached responses under %q\n", c.Prefix)
	return nil
}
