package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"blogpilot/internal/config"
	"blogpilot/internal/crawler"
	"blogpilot/internal/generator"
	"blogpilot/internal/legal"
	"blogpilot/internal/models"
	"blogpilot/internal/monitor"
	"blogpilot/internal/publisher"
	"blogpilot/internal/research"
	"blogpilot/internal/scheduler"
	"blogpilot/internal/server"
	"blogpilot/internal/store"
	"blogpilot/internal/tui"
	"blogpilot/internal/version"
)

func main() {
	app := &cli.Command{
		Name:  "blogpilot",
		Usage: "Automated blog content pipeline",
		Commands: []*cli.Command{
			{
				Name:  "init-db",
				Usage: "Create the database schema and register configured blogs",
				Flags: commonFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, db, err := open(c)
					if err != nil {
						return err
					}
					defer db.Close()
					if err := syncBlogs(ctx, db, cfg); err != nil {
						return err
					}
					fmt.Printf("database ready at %s (%d blogs)\n", cfg.DatabasePath, len(cfg.Blogs))
					return nil
				},
			},
			{
				Name:  "crawl",
				Usage: "Fetch new articles from the configured sources",
				Flags: commonFlags(
					&cli.IntFlag{Name: "limit", Usage: "Max new articles across all sources"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, db, err := open(c)
					if err != nil {
						return err
					}
					defer db.Close()
					logger := newLogger()
					return forEachBlog(cfg, c.String("blog"), func(blog config.Blog) error {
						cr := crawler.New(blog, cfg.Crawl, logger)
						cr.Limit = c.Int("limit")
						saved, err := cr.Crawl(ctx, db)
						if err != nil {
							return err
						}
						fmt.Printf("blog %s: saved %d articles\n", blog.ID, saved)
						return nil
					})
				},
			},
			{
				Name:  "research",
				Usage: "Score keyword candidates from crawled articles",
				Flags: commonFlags(
					&cli.IntFlag{Name: "limit", Usage: "Max source articles to mine", Value: 20},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, db, err := open(c)
					if err != nil {
						return err
					}
					defer db.Close()
					logger := newLogger()
					return forEachBlog(cfg, c.String("blog"), func(blog config.Blog) error {
						n, err := research.NewRunner(blog, cfg.Research, logger).Run(ctx, db, c.Int("limit"))
						if err != nil {
							return err
						}
						fmt.Printf("blog %s: stored %d keywords\n", blog.ID, n)
						if feeds := cfg.Research.CompetitorFeeds; len(feeds) > 0 {
							scanner := research.NewCompetitorScanner(blog.ID, feeds, logger)
							scanned, err := scanner.Scan(ctx, db)
							if err != nil {
								return err
							}
							fmt.Printf("blog %s: scanned %d competitor posts\n", blog.ID, scanned)
						}
						return nil
					})
				},
			},
			{
				Name:  "generate",
				Usage: "Generate posts for the top unused keywords",
				Flags: commonFlags(
					&cli.IntFlag{Name: "count", Usage: "Posts to generate", Value: 1},
					&cli.StringFlag{Name: "category", Usage: "Restrict source articles to one category"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, db, err := open(c)
					if err != nil {
						return err
					}
					defer db.Close()
					logger := newLogger()
					llm := generator.NewCompleter(cfg.AI)
					return forEachBlog(cfg, c.String("blog"), func(blog config.Blog) error {
						engine := generator.NewEngine(blog, cfg.Generate, llm, logger)
						posts, err := engine.Run(ctx, db, c.Int("count"), c.String("category"))
						if err != nil {
							return err
						}
						for _, p := range posts {
							if err := checkLegal(ctx, db, llm, &p); err != nil {
								return err
							}
							fmt.Printf("blog %s: %q (seo %.0f, quality %s)\n", blog.ID, p.Title, p.SEOScore, p.QualityGrade)
						}
						return nil
					})
				},
			},
			{
				Name:  "review",
				Usage: "List posts waiting for review",
				Flags: commonFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, db, err := open(c)
					if err != nil {
						return err
					}
					defer db.Close()
					return forEachBlog(cfg, c.String("blog"), func(blog config.Blog) error {
						posts, err := store.ListPosts(ctx, db, blog.ID, models.StatusReview, 0, 0)
						if err != nil {
							return err
						}
						if len(posts) == 0 {
							fmt.Printf("blog %s: nothing to review\n", blog.ID)
							return nil
						}
						for _, p := range posts {
							fmt.Printf("%s  seo=%-3.0f quality=%-9s %s\n", p.ID, p.SEOScore, p.QualityGrade, p.Title)
							refs, err := store.LegalReferences(ctx, db, p.ID)
							if err != nil {
								return err
							}
							for _, ref := range refs {
								if ref.Verdict != legal.VerdictValid {
									fmt.Printf("    인용 확인 필요: %s (%s)\n", ref.Citation, ref.Verdict)
								}
							}
						}
						return nil
					})
				},
			},
			{
				Name:  "publish",
				Usage: "Publish the next approved post",
				Flags: commonFlags(
					&cli.StringFlag{Name: "id", Usage: "Publish a specific post"},
					&cli.BoolFlag{Name: "force", Usage: "Ignore pacing limits and citation verdicts"},
					&cli.BoolFlag{Name: "skip-review", Usage: "Skip the pre-publish naturalness pass"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, db, err := open(c)
					if err != nil {
						return err
					}
					defer db.Close()
					blog, err := cfg.Blog(c.String("blog"))
					if err != nil {
						return err
					}
					return publishAction(ctx, db, cfg, blog, c.String("id"), c.Bool("force"), c.Bool("skip-review"))
				},
			},
			{
				Name:  "monitor",
				Usage: "Check search rankings for published posts",
				Flags: commonFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, db, err := open(c)
					if err != nil {
						return err
					}
					defer db.Close()
					logger := newLogger()
					return forEachBlog(cfg, c.String("blog"), func(blog config.Blog) error {
						n, err := monitor.NewTracker(blog, cfg.Search, logger).Run(ctx, db)
						if err != nil {
							return err
						}
						fmt.Printf("blog %s: checked %d posts\n", blog.ID, n)
						return nil
					})
				},
			},
			{
				Name:  "report",
				Usage: "Write a performance report",
				Flags: commonFlags(
					&cli.StringFlag{Name: "period", Usage: "weekly or monthly", Value: "weekly"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, db, err := open(c)
					if err != nil {
						return err
					}
					defer db.Close()
					period := monitor.ReportPeriod(c.String("period"))
					if period != monitor.ReportWeekly && period != monitor.ReportMonthly {
						return fmt.Errorf("unknown period %q", c.String("period"))
					}
					return forEachBlog(cfg, c.String("blog"), func(blog config.Blog) error {
						path, err := monitor.NewReporter(blog, cfg.AI, cfg.Reports.Dir).Write(ctx, db, period)
						if err != nil {
							return err
						}
						fmt.Printf("report written: %s\n", path)
						return nil
					})
				},
			},
			{
				Name:  "schedule",
				Usage: "Run the automation loop",
				Flags: commonFlags(
					&cli.BoolFlag{Name: "once", Usage: "Run a single full cycle and exit"},
				),
				Commands: []*cli.Command{
					{
						Name:  "install",
						Usage: "Install launchd agent (macOS)",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "log-file", Usage: "agent log file path"},
							&cli.StringFlag{Name: "plist", Usage: "custom plist path"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							exe, _ := os.Executable()
							if strings.TrimSpace(exe) == "" {
								return fmt.Errorf("cannot discover program path")
							}
							opt := scheduler.AgentOptions{
								ProgramPath: exe,
								ProgramArgs: []string{"schedule"},
								StdOutPath:  c.String("log-file"),
								StdErrPath:  c.String("log-file"),
								PlistPath:   c.String("plist"),
							}
							path, err := scheduler.InstallAgent(opt)
							if err != nil {
								return err
							}
							fmt.Printf("launchd agent installed and loaded: %s\n", path)
							return nil
						},
					},
					{
						Name:  "uninstall",
						Usage: "Uninstall launchd agent (macOS)",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "plist", Usage: "path to plist"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							if err := scheduler.UninstallAgent(c.String("plist")); err != nil {
								return err
							}
							fmt.Println("launchd agent unloaded and removed")
							return nil
						},
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, db, err := open(c)
					if err != nil {
						return err
					}
					defer db.Close()
					logger := newLogger()
					if err := syncBlogs(ctx, db, cfg); err != nil {
						return err
					}
					sched := scheduler.New(cfg.Schedule, buildJobs(db, cfg, logger), logger)
					if c.Bool("once") {
						return sched.RunOnce(ctx)
					}
					return sched.Run(ctx)
				},
			},
			{
				Name:  "serve",
				Usage: "Serve the JSON dashboard API",
				Flags: commonFlags(
					&cli.StringFlag{Name: "addr", Usage: "Listen address (overrides config)"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, db, err := open(c)
					if err != nil {
						return err
					}
					defer db.Close()
					if addr := c.String("addr"); addr != "" {
						cfg.Server.Addr = addr
					}
					if err := syncBlogs(ctx, db, cfg); err != nil {
						return err
					}
					return server.New(db, cfg, newLogger()).ListenAndServe(ctx)
				},
			},
			{
				Name:  "status",
				Usage: "Show pipeline status per blog",
				Flags: commonFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, db, err := open(c)
					if err != nil {
						return err
					}
					defer db.Close()
					return statusAction(ctx, db, cfg, c.String("blog"))
				},
			},
			{
				Name:  "posts",
				Usage: "Browse and review posts in the terminal",
				Flags: commonFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, db, err := open(c)
					if err != nil {
						return err
					}
					defer db.Close()
					blog, err := cfg.Blog(c.String("blog"))
					if err != nil {
						return err
					}
					return tui.Run(ctx, db, blog)
				},
			},
			{
				Name:  "version",
				Usage: "Print the version",
				Action: func(ctx context.Context, c *cli.Command) error {
					fmt.Println(version.GetVersion())
					return nil
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "Path to the config file"},
		&cli.StringFlag{Name: "blog", Usage: "Blog ID (defaults to the only configured blog)"},
	}
	return append(flags, extra...)
}

func newLogger() *log.Logger {
	return log.New(os.Stdout, "[blogpilot] ", log.LstdFlags)
}

func open(c *cli.Command) (config.Config, *sql.DB, error) {
	cfg, err := config.LoadOrCreate(c.String("config"))
	if err != nil {
		return config.Config{}, nil, err
	}
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := store.InitSchema(db); err != nil {
		db.Close()
		return config.Config{}, nil, err
	}
	return cfg, db, nil
}

// forEachBlog runs fn for the requested blog, or every configured blog when
// no ID is given.
func forEachBlog(cfg config.Config, blogID string, fn func(blog config.Blog) error) error {
	if blogID != "" || len(cfg.Blogs) == 1 {
		blog, err := cfg.Blog(blogID)
		if err != nil {
			return err
		}
		return fn(blog)
	}
	if len(cfg.Blogs) == 0 {
		return fmt.Errorf("no blogs configured; edit the config file first")
	}
	for _, blog := range cfg.Blogs {
		if err := fn(blog); err != nil {
			return err
		}
	}
	return nil
}

func syncBlogs(ctx context.Context, db *sql.DB, cfg config.Config) error {
	for _, b := range cfg.Blogs {
		err := store.UpsertBlog(ctx, db, models.Blog{
			ID:       b.ID,
			Name:     b.Name,
			Platform: b.Platform,
			APIBase:  b.APIBase,
			Category: b.Category,
			Active:   true,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// checkLegal extracts statute citations from a fresh post, verifies them and
// stores the verdicts.
func checkLegal(ctx context.Context, db *sql.DB, llm generator.Completer, post *models.Post) error {
	refs := legal.Extract(post.ID, post.Body)
	if len(refs) > 0 {
		verified, err := legal.Verify(ctx, llm, refs)
		if err != nil {
			// Keep the extracted citations so the review surface shows
			// them as unchecked.
			verified = refs
		}
		refs = verified
	}
	if err := store.ReplaceLegalReferences(ctx, db, post.ID, refs); err != nil {
		return err
	}
	return store.InsertLegalCheck(ctx, db, legal.Summarize(post.ID, refs))
}

func hasInvalidCitation(ctx context.Context, db *sql.DB, postID string) (bool, string, error) {
	refs, err := store.LegalReferences(ctx, db, postID)
	if err != nil {
		return false, "", err
	}
	for _, ref := range refs {
		if ref.Verdict == legal.VerdictInvalid {
			return true, ref.Citation, nil
		}
	}
	return false, "", nil
}

func publishAction(ctx context.Context, db *sql.DB, cfg config.Config, blog config.Blog, id string, force, skipReview bool) error {
	var post *models.Post
	var err error
	switch {
	case id != "":
		post, err = store.GetPost(ctx, db, id)
		if err != nil {
			return err
		}
		if post == nil {
			return fmt.Errorf("unknown post %q", id)
		}
	default:
		post, err = store.OldestByStatus(ctx, db, blog.ID, models.StatusApproved)
		if err != nil {
			return err
		}
		if post == nil {
			post, err = store.BestByScore(ctx, db, blog.ID, models.StatusDraft)
			if err != nil {
				return err
			}
		}
	}
	if post == nil {
		fmt.Println("nothing to publish")
		return nil
	}
	if post.Status == models.StatusPublished {
		return fmt.Errorf("post %s is already published", post.ID)
	}

	if !force {
		invalid, citation, err := hasInvalidCitation(ctx, db, post.ID)
		if err != nil {
			return err
		}
		if invalid {
			return fmt.Errorf("post %s cites %s which failed verification; fix it or use --force", post.ID, citation)
		}
	}

	logger := newLogger()
	if !skipReview {
		if err := naturalnessPass(ctx, db, cfg, post, logger); err != nil {
			return err
		}
	}

	pub := publisher.New(blog, cfg.Publish, logger)
	if !force {
		history, err := store.PublishTimes(ctx, db, blog.ID, time.Now().UTC().AddDate(0, 0, -8))
		if err != nil {
			return err
		}
		if ok, reason := pub.Limits.CanPublish(history, time.Now().UTC()); !ok {
			next := pub.Limits.NextPublishTime(history, time.Now().UTC())
			fmt.Printf("%s; next slot %s (use --force to override)\n", reason, next.Format(time.RFC3339))
			return nil
		}
	}
	res, err := pub.PublishPost(ctx, db, post)
	if err != nil {
		return err
	}
	fmt.Printf("published %q at %s\n", res.Post.Title, res.RemoteURL)
	return nil
}

// naturalnessPass rewrites the body through the humanizer when it still
// reads machine-generated.
func naturalnessPass(ctx context.Context, db *sql.DB, cfg config.Config, post *models.Post, logger *log.Logger) error {
	score, hits := generator.NaturalnessScore(post.Body)
	if score >= cfg.Generate.HumanizeBelow {
		return nil
	}
	logger.Printf("post %s: naturalness %.0f (%d patterns), rewriting", post.ID, score, len(hits))
	body, err := generator.Humanize(ctx, generator.NewCompleter(cfg.AI), post.Body)
	if err != nil {
		return fmt.Errorf("humanize failed: %w", err)
	}
	post.Body = body
	return store.UpsertPost(ctx, db, *post)
}

// buildJobs wires the scheduler actions over every configured blog.
func buildJobs(db *sql.DB, cfg config.Config, logger *log.Logger) scheduler.Jobs {
	llm := generator.NewCompleter(cfg.AI)
	return scheduler.Jobs{
		Crawl: func(ctx context.Context) error {
			return forEachBlog(cfg, "", func(blog config.Blog) error {
				_, err := crawler.New(blog, cfg.Crawl, logger).Crawl(ctx, db)
				return err
			})
		},
		Publish: func(ctx context.Context) error {
			return forEachBlog(cfg, "", func(blog config.Blog) error {
				return autoPipeline(ctx, db, cfg, blog, llm, logger)
			})
		},
		Monitor: func(ctx context.Context) error {
			return forEachBlog(cfg, "", func(blog config.Blog) error {
				_, err := monitor.NewTracker(blog, cfg.Search, logger).Run(ctx, db)
				return err
			})
		},
		Report: func(ctx context.Context) error {
			return forEachBlog(cfg, "", func(blog config.Blog) error {
				path, err := monitor.NewReporter(blog, cfg.AI, cfg.Reports.Dir).Write(ctx, db, monitor.ReportWeekly)
				if err != nil {
					return err
				}
				logger.Printf("report written: %s", path)
				return nil
			})
		},
	}
}

// autoPipeline is one unattended publish cycle for a blog: top up keywords,
// generate a post, auto-approve it when it clears every gate, then publish
// whatever approved post is due.
func autoPipeline(ctx context.Context, db *sql.DB, cfg config.Config, blog config.Blog, llm generator.Completer, logger *log.Logger) error {
	if _, err := research.NewRunner(blog, cfg.Research, logger).Run(ctx, db, 10); err != nil {
		logger.Printf("blog %s: research failed: %v", blog.ID, err)
	}
	if feeds := cfg.Research.CompetitorFeeds; len(feeds) > 0 {
		if _, err := research.NewCompetitorScanner(blog.ID, feeds, logger).Scan(ctx, db); err != nil {
			logger.Printf("blog %s: competitor scan failed: %v", blog.ID, err)
		}
	}

	engine := generator.NewEngine(blog, cfg.Generate, llm, logger)
	posts, err := engine.Run(ctx, db, 1, "")
	if err != nil {
		logger.Printf("blog %s: generation failed: %v", blog.ID, err)
	}
	for _, p := range posts {
		if err := checkLegal(ctx, db, llm, &p); err != nil {
			return err
		}
		if err := autoApprove(ctx, db, cfg, &p, logger); err != nil {
			return err
		}
	}

	pub := publisher.New(blog, cfg.Publish, logger)
	res, err := pub.PublishNext(ctx, db)
	if err != nil {
		return err
	}
	if res != nil && res.Deferred {
		logger.Printf("blog %s: publish deferred until %s", blog.ID, res.NextSlot.Format(time.RFC3339))
	}
	return nil
}

// autoApprove promotes a generated post when it clears the quality and
// citation gates; otherwise it stays in review for a human.
func autoApprove(ctx context.Context, db *sql.DB, cfg config.Config, post *models.Post, logger *log.Logger) error {
	if post.QualityGrade != generator.GradeExcellent && post.QualityGrade != generator.GradeGood {
		return nil
	}
	if post.SEOScore < cfg.Generate.MinSEOScore {
		return nil
	}
	invalid, citation, err := hasInvalidCitation(ctx, db, post.ID)
	if err != nil {
		return err
	}
	if invalid {
		logger.Printf("post %s: citation %s failed verification, leaving in review", post.ID, citation)
		return nil
	}
	return store.SetPostStatus(ctx, db, post.ID, models.StatusApproved)
}

func statusAction(ctx context.Context, db *sql.DB, cfg config.Config, blogID string) error {
	limits := publisher.LimitsFromConfig(cfg.Publish)
	err := forEachBlog(cfg, blogID, func(blog config.Blog) error {
		counts, err := store.CountPostsByStatus(ctx, db, blog.ID)
		if err != nil {
			return err
		}
		history, err := store.PublishTimes(ctx, db, blog.ID, time.Now().UTC().AddDate(0, 0, -8))
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", blog.Name, blog.ID)
		for _, status := range []string{
			models.StatusDraft, models.StatusReview, models.StatusApproved,
			models.StatusPublished, models.StatusRejected, models.StatusFailed,
		} {
			if counts[status] > 0 {
				fmt.Printf("  %-10s %d\n", status, counts[status])
			}
		}
		next := limits.NextPublishTime(history, time.Now().UTC())
		fmt.Printf("  next publish slot: %s\n", next.Local().Format("2006-01-02 15:04"))

		top, err := store.TopKeywords(ctx, db, blog.ID, 0, 3)
		if err != nil {
			return err
		}
		for _, kw := range top {
			trend, err := research.KeywordTrend(ctx, db, blog.ID, kw.Term)
			if err != nil {
				return err
			}
			fmt.Printf("  keyword %-20s score %.0f  %s (%+.0f%%)\n",
				kw.Term, kw.Score, trend.Direction, trend.ChangePct)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if loaded, state := scheduler.AgentStatus(); loaded {
		fmt.Printf("schedule agent: %s\n", state)
	}
	return nil
}
