package main

import (
	"flag"
	"fmt"

	"github.com/example/blurkit/internal/quota"
)

// usageCmd reports the tier and today's remaining exports.
type usageCmd struct {
	*root
	fs *flag.FlagSet
}

func (u *usageCmd) FlagSet() *flag.FlagSet {
	return u.fs
}

func parseUsageCmd(args []string, r *root) (*usageCmd, error) {
	fs := flag.NewFlagSet("usage", flag.ExitOnError)
	u := &usageCmd{root: r.subcommand("usage"), fs: fs}
	fs.Usage = usageFunc(u)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *usageCmd) Run() error {
	store, err := usageStore()
	if err != nil {
		return fmt.Errorf("open usage counter: %w", err)
	}
	tr := quota.NewTracker(u.tier, store)
	stats, err := tr.Stats()
	if err != nil {
		return err
	}
	remaining, err := tr.Remaining()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "tier: %s\n", u.tier)
	if remaining == quota.Unlimited {
		fmt.Fprintln(stdout, "exports today: unlimited")
		return nil
	}
	fmt.Fprintf(stdout, "exports today: %d of %d used, %d left\n", stats.BlursToday, quota.FreeDailyLimit, remaining)
	return nil
}
