package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/chrissnell/zhl16/internal/app"
	"github.com/chrissnell/zhl16/internal/constants"
	"github.com/chrissnell/zhl16/internal/controllers/restserver"
	"github.com/chrissnell/zhl16/internal/log"
	"github.com/chrissnell/zhl16/internal/storage"
	"github.com/chrissnell/zhl16/internal/storage/sqlite"
	"github.com/chrissnell/zhl16/pkg/buhlmann"
	"github.com/chrissnell/zhl16/pkg/config"
	"github.com/chrissnell/zhl16/pkg/profile"
)

func main() {
	cfgFile := flag.String("config", "profile.yaml", "Path to profile source:\n\t\t\t  YAML: profile.yaml\n\t\t\t  SQLite: profiles.db\n\t\t\t  Use 'profile-convert' tool to convert YAML→SQLite")
	cfgBackend := flag.String("config-backend", "yaml", "Profile backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	profileName := flag.String("profile", "", "Profile name to load from a SQLite backend (default: the first one stored)")
	storePath := flag.String("store", "", "Path to a SQLite database for computed runs (default: runs are not kept)")
	listen := flag.String("listen", "", "Serve the HTTP API on this address (e.g. :8080) instead of printing a timeline")
	format := flag.String("format", "table", "Output format: 'table' or 'json'")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", constants.AppName, constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var store storage.TimelineStore
	if *storePath != "" {
		s, err := sqlite.New(*storePath, log.Named("store"))
		if err != nil {
			log.Errorf("Failed to open run store: %v", err)
			os.Exit(1)
		}
		store = s
	}

	if *listen != "" {
		serverConfig, err := parseListen(*listen)
		if err != nil {
			log.Errorf("Invalid -listen address: %v", err)
			os.Exit(1)
		}
		application := app.New(serverConfig, store, log.Named("rest"))
		if err := application.Run(context.Background()); err != nil {
			log.Errorf("Application error: %v", err)
			os.Exit(1)
		}
		return
	}

	if store != nil {
		defer store.Close()
	}

	p, err := loadProfile(*cfgFile, *cfgBackend, *profileName)
	if err != nil {
		log.Errorf("Failed to load profile: %v", err)
		os.Exit(1)
	}

	tl, err := runProfile(context.Background(), p)
	if err != nil {
		log.Errorf("Failed to run profile %s: %v", p.Name, err)
		os.Exit(1)
	}

	if store != nil {
		if err := store.SaveTimeline(context.Background(), tl); err != nil {
			log.Errorf("Failed to save timeline: %v", err)
			os.Exit(1)
		}
	}

	switch *format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(tl)
	case "table":
		err = printTimeline(os.Stdout, tl)
	default:
		err = fmt.Errorf("unsupported output format: %s. Use 'table' or 'json'", *format)
	}
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func loadProfile(cfgFile, cfgBackend, profileName string) (*config.ProfileData, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ProfileProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename, profileName)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported profile backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	p, err := provider.LoadProfile()
	if err != nil {
		return nil, fmt.Errorf("error reading profile. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return p, nil
}

func runProfile(ctx context.Context, p *config.ProfileData) (*profile.Timeline, error) {
	segments, err := p.ToSegments()
	if err != nil {
		return nil, err
	}
	model, err := buhlmann.LookupModel(p.ModelName())
	if err != nil {
		return nil, err
	}

	tl, _, err := profile.NewRunner(log.Named("runner")).Run(ctx, p.Name, model, p.Constants(), segments)
	return tl, err
}

func printTimeline(w io.Writer, tl *profile.Timeline) error {
	fmt.Fprintf(w, "%s (%s) run %s\n\n", tl.Name, tl.Model, tl.ID)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "seq\truntime\tdepth\tgas\tgf\tceiling\tstop\tlead\tworst M\t")
	for _, s := range tl.Samples {
		fmt.Fprintf(tw, "%d\t%.1f\t%g→%g\t%s\t%.2f\t%.1f\t%d\t%d\t%.0f%%\t\n",
			s.Seq, s.Runtime, s.Segment.BeginDepth, s.Segment.EndDepth, s.Segment.Gas.Name,
			s.Segment.GradientFactor, s.Ceiling, s.State.LeadCeilingStop,
			s.ControllingCompartment, s.WorstMValue*100)
	}
	return tw.Flush()
}

func parseListen(addr string) (restserver.Config, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return restserver.Config{}, err
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return restserver.Config{}, fmt.Errorf("invalid port %q", port)
	}
	return restserver.Config{ListenAddr: host, Port: p}, nil
}
