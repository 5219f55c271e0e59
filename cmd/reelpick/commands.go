package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/reelpick/internal/catalog"
	"github.com/Clark-Hu/reelpick/internal/domain"
	"github.com/Clark-Hu/reelpick/internal/picker"
	"github.com/Clark-Hu/reelpick/internal/prefs"
)

// localClient keys the single user's selection in the preferences file.
const localClient = "local"

type env struct {
	ctx     context.Context
	catalog catalog.Client
	picker  *picker.Service
	prefs   prefs.Store
	logger  logrus.FieldLogger
}

type envBuilder func(c *cli.Context) (*env, error)

func newApp(ctx context.Context, build envBuilder) *cli.App {
	app := cli.NewApp()
	app.Name = "reelpick"
	app.Usage = "pick tonight's movie from your streaming services"
	app.Flags = registerFlags([]cli.Flag{})

	withEnv := func(fn func(c *cli.Context, e *env) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			e, err := build(c)
			if err != nil {
				return err
			}
			e.ctx = ctx
			if err := fn(c, e); err != nil {
				return errors.New(describe(err))
			}
			return nil
		}
	}

	app.Commands = []cli.Command{
		{
			Name:   "services",
			Usage:  "list streaming services, marking the saved selection",
			Action: withEnv(runServices),
		},
		{
			Name:      "select",
			Usage:     "save the streaming services to draw from",
			ArgsUsage: "<service-id>...",
			Action:    withEnv(runSelect),
		},
		{
			Name:   "reset",
			Usage:  "clear the saved service selection",
			Action: withEnv(runReset),
		},
		{
			Name:    "movies",
			Aliases: []string{"m"},
			Usage:   "list candidate movies on the selected services",
			Action:  withEnv(runMovies),
		},
		{
			Name:      "search",
			Aliases:   []string{"s"},
			Usage:     "search titles and show where they stream",
			ArgsUsage: "<query>",
			Action:    withEnv(runSearch),
		},
		{
			Name:      "pick",
			Aliases:   []string{"p"},
			Usage:     "choose a winner among 2-5 movie ids",
			ArgsUsage: "<movie-id>...",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "method",
					Usage: "random, highest_rated, most_popular or shortest_runtime",
					Value: string(domain.PickRandom),
				},
			},
			Action: withEnv(runPick),
		},
	}
	return app
}

func describe(err error) string {
	switch {
	case errors.Is(err, catalog.ErrMissingCredential):
		return "no catalog api key configured; set TMDB_API_KEY or --" + keyFlag
	case errors.Is(err, picker.ErrUpstream):
		return "catalog request failed, please try again"
	default:
		return err.Error()
	}
}

func runServices(c *cli.Context, e *env) error {
	selected := map[int]struct{}{}
	for _, id := range prefs.LoadServices(e.ctx, e.prefs, localClient, e.logger) {
		selected[id] = struct{}{}
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSERVICE\tLOGO\tSELECTED")
	for _, svc := range domain.StreamingServices() {
		mark := ""
		if _, ok := selected[svc.ID]; ok {
			mark = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", svc.ID, svc.Name, svc.Logo, mark)
	}
	return tw.Flush()
}

func runSelect(c *cli.Context, e *env) error {
	ids, err := parseIDs(c.Args())
	if err != nil {
		return err
	}
	saved, err := prefs.SaveServices(e.ctx, e.prefs, localClient, ids)
	if err != nil {
		return err
	}
	if len(saved) == 0 {
		return fmt.Errorf("no known service ids given; run 'reelpick services' to list them")
	}
	names := make([]string, 0, len(saved))
	for _, id := range saved {
		svc, _ := domain.LookupService(id)
		names = append(names, svc.Name)
	}
	fmt.Fprintf(c.App.Writer, "Selected: %s\n", strings.Join(names, ", "))
	return nil
}

func runReset(c *cli.Context, e *env) error {
	if err := prefs.ClearServices(e.ctx, e.prefs, localClient); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Selection cleared")
	return nil
}

func requireSelection(e *env) ([]int, error) {
	ids := prefs.LoadServices(e.ctx, e.prefs, localClient, e.logger)
	if len(ids) == 0 {
		return nil, fmt.Errorf("no services selected; run 'reelpick select <service-id>...' first")
	}
	return ids, nil
}

func runMovies(c *cli.Context, e *env) error {
	ids, err := requireSelection(e)
	if err != nil {
		return err
	}
	movies, err := e.picker.Aggregate(e.ctx, ids)
	if err != nil {
		return err
	}
	if len(movies) == 0 {
		fmt.Fprintln(c.App.Writer, "No movies found, try again for a different genre")
		return nil
	}
	writeMovies(c.App.Writer, movies)
	return nil
}

func runSearch(c *cli.Context, e *env) error {
	query := strings.TrimSpace(strings.Join(c.Args(), " "))
	if query == "" {
		return fmt.Errorf("usage: reelpick search <query>")
	}
	ids := prefs.LoadServices(e.ctx, e.prefs, localClient, e.logger)
	results, err := e.picker.Search(e.ctx, query, ids)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(c.App.Writer, "No matches")
		return nil
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tRATING\tON YOUR SERVICES")
	for _, r := range results {
		on := "-"
		if r.Available {
			on = strings.Join(r.AvailableOn, ", ")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%s\n", r.ID, r.Title, year(r.ReleaseDate), r.VoteAverage, on)
	}
	return tw.Flush()
}

func runPick(c *cli.Context, e *env) error {
	method, err := domain.ParsePickMethod(c.String("method"))
	if err != nil {
		return err
	}
	ids, err := parseIDs(c.Args())
	if err != nil {
		return err
	}
	if len(ids) < picker.MinPickCandidates || len(ids) > picker.MaxPickCandidates {
		return fmt.Errorf("pick needs %d to %d movie ids, got %d", picker.MinPickCandidates, picker.MaxPickCandidates, len(ids))
	}

	candidates, err := resolveMovies(e.ctx, e.catalog, ids)
	if err != nil {
		return err
	}
	pick, err := e.picker.SelectWinner(e.ctx, candidates, method)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if pick.Runtimes != nil {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tRUNTIME")
		for _, m := range candidates {
			rt := "unknown"
			if v := pick.Runtimes[m.ID]; v != nil {
				rt = fmt.Sprintf("%d min", *v)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", m.ID, m.Title, rt)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if pick.FellBack {
			fmt.Fprintln(w, "No runtimes known, picked at random")
		}
	}
	fmt.Fprintf(w, "Winner (%s): %s (%s) [%d]\n", pick.Method, pick.Winner.Title, year(pick.Winner.ReleaseDate), pick.Winner.ID)
	return nil
}

// resolveMovies fetches each id from the catalog. Every id must resolve.
func resolveMovies(ctx context.Context, client catalog.Client, ids []int) ([]domain.Movie, error) {
	movies := make([]domain.Movie, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			details, err := client.Details(gctx, id)
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					return fmt.Errorf("movie %d not found", id)
				}
				return err
			}
			movie, ok := details.Title.Movie()
			if !ok {
				movie = domain.Movie{
					ID:          details.ID,
					Title:       details.Title.Title,
					ReleaseDate: details.ReleaseDate,
					VoteAverage: details.VoteAverage,
					Popularity:  details.Popularity,
				}
			}
			movies[i] = movie
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return movies, nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func writeMovies(w io.Writer, movies []domain.Movie) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tRATING\tPOPULARITY")
	for _, m := range movies {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%.1f\n", m.ID, m.Title, year(m.ReleaseDate), m.VoteAverage, m.Popularity)
	}
	_ = tw.Flush()
}

func year(releaseDate string) string {
	if len(releaseDate) < 4 {
		return "----"
	}
	return releaseDate[:4]
}
