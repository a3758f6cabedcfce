package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind              string
	cards             string
	countdownDuration time.Duration
	port              int
	prefix            string
	primaryDeck       string
	profile           bool
	rateBurst         int
	rateLimit         float64
	roundDuration     time.Duration
	roundsPerTeam     int
	secondaryDeck     string
	sessionTimeout    time.Duration
	tlsCert           string
	tlsKey            string
	verbose           bool
	version           bool

	// tick is the length of one game-clock second; zero means time.Second.
	tick time.Duration
}

func wholeSeconds(name string, d time.Duration) error {
	if d < time.Second || d%time.Second != 0 {
		return fmt.Errorf("invalid --%s (must be a whole number of seconds, at least 1s): %s", name, d)
	}
	return nil
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if err := wholeSeconds("round-duration", c.roundDuration); err != nil {
		return err
	}
	if err := wholeSeconds("countdown-duration", c.countdownDuration); err != nil {
		return err
	}
	if c.roundsPerTeam < 1 {
		return fmt.Errorf("invalid --rounds-per-team (must be at least 1): %d", c.roundsPerTeam)
	}
	if c.sessionTimeout < 0 {
		return fmt.Errorf("invalid --session-timeout (must not be negative): %s", c.sessionTimeout)
	}
	if c.primaryDeck == "" || c.secondaryDeck == "" {
		return errors.New("both --primary-deck and --secondary-deck must be set")
	}
	if c.primaryDeck == c.secondaryDeck {
		return fmt.Errorf("--primary-deck and --secondary-deck must differ: %q", c.primaryDeck)
	}
	if c.rateLimit <= 0 || c.rateBurst < 1 {
		return fmt.Errorf("invalid rate limit (must be positive): %v/s, burst %d", c.rateLimit, c.rateBurst)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TABOO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "taboo",
		Short:         "A team word-guessing party game, served to your browser.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TABOO_BIND)")
	fs.StringVar(&cfg.cards, "cards", "", "path to card deck json file, instead of the built-in decks (env: TABOO_CARDS)")
	fs.DurationVar(&cfg.countdownDuration, "countdown-duration", 5*time.Second, "countdown before each round (env: TABOO_COUNTDOWN_DURATION)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: TABOO_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: TABOO_PREFIX)")
	fs.StringVar(&cfg.primaryDeck, "primary-deck", "naija", "name of the primary deck in the card file (env: TABOO_PRIMARY_DECK)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: TABOO_PROFILE)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 20, "messages a connection may send in a burst (env: TABOO_RATE_BURST)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 10, "sustained messages per second allowed per connection (env: TABOO_RATE_LIMIT)")
	fs.DurationVar(&cfg.roundDuration, "round-duration", 60*time.Second, "length of each round (env: TABOO_ROUND_DURATION)")
	fs.IntVar(&cfg.roundsPerTeam, "rounds-per-team", 3, "rounds each team plays before the game ends (env: TABOO_ROUNDS_PER_TEAM)")
	fs.StringVar(&cfg.secondaryDeck, "secondary-deck", "general", "name of the secondary deck in the card file (env: TABOO_SECONDARY_DECK)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: TABOO_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: TABOO_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: TABOO_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: TABOO_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: TABOO_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("taboo v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
