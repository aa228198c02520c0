package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/wikiboard/wikimod/moderation"
	"github.com/wikiboard/wikimod/moderation/models"

	"github.com/urfave/cli/v2"
)

var cmdStatus = &cli.Command{
	Name:      "status",
	Usage:     "evaluate a user's moderation status (expiring stale bans)",
	ArgsUsage: `<user-id>`,
	Action: func(cctx *cli.Context) error {
		uid, err := argUint(cctx, 0, "user-id")
		if err != nil {
			return err
		}
		eng, err := openEngine(cctx)
		if err != nil {
			return err
		}
		st, err := eng.EvaluateAndReconcileStatus(cctx.Context, uid)
		if err != nil {
			return err
		}
		return printJSON(st)
	},
}

var cmdWarn = &cli.Command{
	Name:      "warn",
	Usage:     "issue a warning to a user; may trigger an automatic ban",
	ArgsUsage: `<user-id>`,
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:  "by",
			Usage: "moderator user id",
		},
		&cli.StringFlag{
			Name:  "severity",
			Usage: "low, medium, high or critical",
			Value: string(models.SeverityMedium),
		},
		&cli.StringFlag{
			Name:  "reason",
			Usage: "free-form reason shown to moderators",
		},
		&cli.StringFlag{
			Name:  "content",
			Usage: "reference to the related content (eg, article:42)",
		},
	},
	Action: func(cctx *cli.Context) error {
		uid, err := argUint(cctx, 0, "user-id")
		if err != nil {
			return err
		}
		eng, err := openEngine(cctx)
		if err != nil {
			return err
		}
		w, err := eng.IssueWarning(cctx.Context, moderation.WarningRequest{
			UserID:         uid,
			IssuedBy:       cctx.Uint64("by"),
			Severity:       models.Severity(cctx.String("severity")),
			Reason:         cctx.String("reason"),
			RelatedContent: cctx.String("content"),
		})
		if w != nil {
			if perr := printJSON(w); perr != nil {
				return perr
			}
		}
		return err
	},
}

var cmdRemoveWarning = &cli.Command{
	Name:      "remove-warning",
	Usage:     "deactivate a warning",
	ArgsUsage: `<warning-id>`,
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:  "by",
			Usage: "moderator user id",
		},
		&cli.StringFlag{
			Name:  "reason",
			Usage: "why the warning is being removed",
		},
	},
	Action: func(cctx *cli.Context) error {
		wid, err := argUint(cctx, 0, "warning-id")
		if err != nil {
			return err
		}
		eng, err := openEngine(cctx)
		if err != nil {
			return err
		}
		ok, err := eng.RemoveWarning(cctx.Context, wid, cctx.Uint64("by"), cctx.String("reason"))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %d", moderation.ErrWarningNotFound, wid)
		}
		return printJSON(map[string]any{"warning_id": wid, "removed": true})
	},
}

var cmdBan = &cli.Command{
	Name:      "ban",
	Usage:     "ban a user, superseding any active ban",
	ArgsUsage: `<user-id>`,
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:  "by",
			Usage: "moderator user id",
		},
		&cli.StringFlag{
			Name:  "reason",
			Usage: "spam, harassment, inappropriate_content, multiple_violations or other",
			Value: string(models.BanReasonOther),
		},
		&cli.StringFlag{
			Name:  "duration",
			Usage: "1h, 1d, 7d, 30d or permanent",
			Value: string(models.BanDurationDay),
		},
		&cli.StringFlag{
			Name:  "notes",
			Usage: "free-form moderator notes",
		},
	},
	Action: func(cctx *cli.Context) error {
		uid, err := argUint(cctx, 0, "user-id")
		if err != nil {
			return err
		}
		eng, err := openEngine(cctx)
		if err != nil {
			return err
		}
		ban, err := eng.BanUser(cctx.Context, moderation.BanRequest{
			UserID:   uid,
			BannedBy: cctx.Uint64("by"),
			Reason:   models.BanReason(cctx.String("reason")),
			Duration: models.BanDuration(cctx.String("duration")),
			Notes:    cctx.String("notes"),
		})
		if err != nil {
			return err
		}
		return printJSON(ban)
	},
}

var cmdUnban = &cli.Command{
	Name:      "unban",
	Usage:     "lift all active bans of a user",
	ArgsUsage: `<user-id>`,
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:  "by",
			Usage: "moderator user id",
		},
		&cli.StringFlag{
			Name:  "reason",
			Usage: "why the ban is being lifted",
		},
	},
	Action: func(cctx *cli.Context) error {
		uid, err := argUint(cctx, 0, "user-id")
		if err != nil {
			return err
		}
		eng, err := openEngine(cctx)
		if err != nil {
			return err
		}
		ok, err := eng.UnbanUser(cctx.Context, uid, cctx.Uint64("by"), cctx.String("reason"))
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"user_id": uid, "unbanned": ok})
	},
}

var cmdWarnings = &cli.Command{
	Name:      "warnings",
	Usage:     "list a user's warnings, newest first",
	ArgsUsage: `<user-id>`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "all",
			Usage: "include deactivated warnings",
		},
	},
	Action: func(cctx *cli.Context) error {
		uid, err := argUint(cctx, 0, "user-id")
		if err != nil {
			return err
		}
		eng, err := openEngine(cctx)
		if err != nil {
			return err
		}
		l, err := eng.ListWarnings(cctx.Context, uid, !cctx.Bool("all"))
		if err != nil {
			return err
		}
		return printJSON(l)
	},
}

var cmdBans = &cli.Command{
	Name:      "bans",
	Usage:     "list a user's bans, newest first",
	ArgsUsage: `<user-id>`,
	Action: func(cctx *cli.Context) error {
		uid, err := argUint(cctx, 0, "user-id")
		if err != nil {
			return err
		}
		eng, err := openEngine(cctx)
		if err != nil {
			return err
		}
		l, err := eng.ListBans(cctx.Context, uid)
		if err != nil {
			return err
		}
		return printJSON(l)
	},
}

var cmdLog = &cli.Command{
	Name:  "log",
	Usage: "query the moderation log, newest first",
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:  "user",
			Usage: "only entries targeting this user",
		},
		&cli.Uint64Flag{
			Name:  "moderator",
			Usage: "only entries by this moderator",
		},
		&cli.StringFlag{
			Name:  "action",
			Usage: "ban_issued, ban_removed, warning_issued or warning_removed",
		},
		&cli.DurationFlag{
			Name:  "since",
			Usage: "only entries newer than this (eg, 72h)",
		},
		&cli.IntFlag{
			Name:  "limit",
			Value: 100,
		},
		&cli.BoolFlag{
			Name:  "purge",
			Usage: "delete entries older than the configured retention instead of listing",
		},
	},
	Action: func(cctx *cli.Context) error {
		eng, err := openEngine(cctx)
		if err != nil {
			return err
		}
		if cctx.Bool("purge") {
			n, err := eng.PurgeModLog(cctx.Context, 0)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"purged": n})
		}

		filter := moderation.ModLogFilter{
			TargetUserID: cctx.Uint64("user"),
			ModeratorID:  cctx.Uint64("moderator"),
			Action:       models.ModAction(strings.ToLower(cctx.String("action"))),
			Limit:        cctx.Int("limit"),
		}
		if d := cctx.Duration("since"); d > 0 {
			filter.Since = time.Now().UTC().Add(-d)
		}
		l, err := eng.ListModLog(cctx.Context, filter)
		if err != nil {
			return err
		}
		return printJSON(l)
	},
}

var cmdCounter = &cli.Command{
	Name:  "counter",
	Usage: "inspect or modify ephemeral censorship counters (requires --redis-url)",
	Before: func(cctx *cli.Context) error {
		// an in-process store would be gone before any other command could see it
		if cctx.String("redis-url") == "" {
			return fmt.Errorf("counter commands need a shared store: set --redis-url")
		}
		return nil
	},
	Subcommands: []*cli.Command{
		&cli.Command{
			Name:      "get",
			ArgsUsage: `<user-id>`,
			Action: func(cctx *cli.Context) error {
				uid, err := argUint(cctx, 0, "user-id")
				if err != nil {
					return err
				}
				eng, err := openEngine(cctx)
				if err != nil {
					return err
				}
				n, err := eng.GetUserWarnings(cctx.Context, uid)
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"user_id": uid, "count": n})
			},
		},
		&cli.Command{
			Name:      "add",
			ArgsUsage: `<user-id> [<word>...]`,
			Action: func(cctx *cli.Context) error {
				uid, err := argUint(cctx, 0, "user-id")
				if err != nil {
					return err
				}
				eng, err := openEngine(cctx)
				if err != nil {
					return err
				}
				n, err := eng.AddUserWarning(cctx.Context, uid, cctx.Args().Tail())
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"user_id": uid, "count": n})
			},
		},
		&cli.Command{
			Name:      "reset",
			ArgsUsage: `<user-id>`,
			Action: func(cctx *cli.Context) error {
				uid, err := argUint(cctx, 0, "user-id")
				if err != nil {
					return err
				}
				eng, err := openEngine(cctx)
				if err != nil {
					return err
				}
				if err := eng.ResetUserWarnings(cctx.Context, uid); err != nil {
					return err
				}
				return printJSON(map[string]any{"user_id": uid, "count": 0})
			},
		},
	},
}
