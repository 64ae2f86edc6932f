// main.go: wardenctl, a small first-party inspection CLI for a running warden adapter
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// Command wardenctl inspects and force-releases locks, semaphores, and
// shared locks against a chosen adapter, for operators debugging a stuck
// key in production. It is not a distributed coordination product of its
// own - just the same kind of demo/ops tool the teacher ships under its
// examples/ directory, flag-parsed with the teacher's own (indirect)
// flash-flags dependency instead of the standard library's flag package.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/agilira/flash-flags"
	"github.com/agilira/warden/adapter/rds"
)

func main() {
	fs := flashflags.New("wardenctl", "inspect and force-release warden keys")
	addr := fs.String("redis-addr", "127.0.0.1:6379", "Redis address backing the target adapter")
	db := fs.Int("redis-db", 0, "Redis logical DB index")
	prefix := fs.String("prefix", "warden:", "key prefix the adapter was constructed with")
	timeout := fs.Duration("timeout", 5*time.Second, "per-command timeout")

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "wardenctl:", err)
		os.Exit(2)
	}

	args := fs.Args()
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}

	client, err := rds.NewClient(addr.Value(), db.Value())
	if err != nil {
		fmt.Fprintln(os.Stderr, "wardenctl: connect:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout.Value())
	defer cancel()

	group, verb := args[0], args[1]
	key := ""
	if len(args) > 2 {
		key = args[2]
	}

	if err := dispatch(ctx, client, prefix.Value(), group, verb, key); err != nil {
		fmt.Fprintln(os.Stderr, "wardenctl:", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, client *rds.Client, prefix, group, verb, key string) error {
	switch group {
	case "lock":
		adapter := rds.NewLockAdapter(client, prefix)
		switch verb {
		case "state":
			rec, err := adapter.GetState(ctx, key)
			if err != nil {
				return err
			}
			if rec == nil {
				fmt.Println("free")
				return nil
			}
			fmt.Printf("held by %s, expiration=%v\n", rec.Owner, rec.Expiration)
			return nil
		case "force-release":
			ok, err := adapter.ForceRelease(ctx, key)
			if err != nil {
				return err
			}
			fmt.Println("released:", ok)
			return nil
		}
	case "sem":
		adapter := rds.NewSemaphoreAdapter(client, prefix)
		switch verb {
		case "state":
			rec, err := adapter.GetState(ctx, key)
			if err != nil {
				return err
			}
			if rec == nil {
				fmt.Println("free")
				return nil
			}
			fmt.Printf("limit=%d held=%d\n", rec.Limit, len(rec.AcquiredSlots))
			for slot, exp := range rec.AcquiredSlots {
				fmt.Printf("  slot=%s expiration=%v\n", slot, exp)
			}
			return nil
		case "force-release-all":
			ok, err := adapter.ForceReleaseAll(ctx, key)
			if err != nil {
				return err
			}
			fmt.Println("released:", ok)
			return nil
		}
	case "shared":
		adapter := rds.NewSharedLockAdapter(client, prefix)
		switch verb {
		case "state":
			rec, err := adapter.GetState(ctx, key)
			if err != nil {
				return err
			}
			switch {
			case rec.Writer != nil:
				fmt.Printf("writer held by %s, expiration=%v\n", rec.Writer.Owner, rec.Writer.Expiration)
			case rec.Reader != nil:
				fmt.Printf("reader limit=%d held=%d\n", rec.Reader.Limit, len(rec.Reader.AcquiredSlots))
			default:
				fmt.Println("free")
			}
			return nil
		case "force-release":
			ok, err := adapter.ForceRelease(ctx, key)
			if err != nil {
				return err
			}
			fmt.Println("released:", ok)
			return nil
		}
	}
	usage()
	return fmt.Errorf("unknown command %q %q", group, verb)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: wardenctl [flags] <lock|sem|shared> <state|force-release|force-release-all> <key>`)
}
