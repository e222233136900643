package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/jrjohn/arcana-auth-client/internal/config"
	"github.com/jrjohn/arcana-auth-client/internal/di"
	"github.com/jrjohn/arcana-auth-client/internal/security"
	"github.com/jrjohn/arcana-auth-client/pkg/authclient"
	apperrors "github.com/jrjohn/arcana-auth-client/pkg/errors"
	"github.com/jrjohn/arcana-auth-client/pkg/logger"
)

const (
	exitOK    = 0
	exitError = 1

	startTimeout = 15 * time.Second
)

var errUsage = errors.New("usage")

type options struct {
	configPath string
	output     string
	verbose    bool
}

// command runs one subcommand against a ready client. client is nil for
// commands that work offline.
type command struct {
	name    string
	summary string
	offline bool
	flags   func(fs *flag.FlagSet) func(ctx context.Context, client *authclient.AuthClient) (any, error)
}

var commands = []command{
	{name: "register", summary: "create an account", flags: registerFlags},
	{name: "login", summary: "sign in to an organization", flags: loginFlags},
	{name: "refresh", summary: "exchange a refresh token for new tokens", flags: refreshFlags},
	{name: "logout", summary: "revoke the refresh tokens of a user", flags: logoutFlags},
	{name: "inspect", summary: "decode an access or refresh token without verifying it", offline: true, flags: inspectFlags},
}

func run(args []string, stdout, stderr io.Writer) int {
	opts := options{}
	global := flag.NewFlagSet("authctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.StringVar(&opts.configPath, "config", "", "config file (default: search ., ./config, $HOME/.arcana)")
	global.StringVar(&opts.output, "output", "json", "output format: json or yaml")
	global.BoolVar(&opts.verbose, "verbose", false, "log requests to stderr")
	global.Usage = func() { usage(global) }

	if err := global.Parse(args); err != nil {
		return exitError
	}
	if global.NArg() == 0 {
		usage(global)
		return exitError
	}

	cmd, ok := lookup(global.Arg(0))
	if !ok {
		fmt.Fprintf(stderr, "error: unknown command %q\n", global.Arg(0))
		usage(global)
		return exitError
	}

	fs := flag.NewFlagSet("authctl "+cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.output, "output", opts.output, "output format: json or yaml")
	exec := cmd.flags(fs)
	if err := fs.Parse(global.Args()[1:]); err != nil {
		return exitError
	}
	if opts.output != "json" && opts.output != "yaml" {
		fmt.Fprintf(stderr, "error: unsupported output format %q\n", opts.output)
		return exitError
	}

	result, err := execute(cmd, exec, opts)
	if err != nil {
		printError(stderr, err)
		return exitError
	}
	if err := render(stdout, opts.output, result); err != nil {
		printError(stderr, err)
		return exitError
	}
	return exitOK
}

func execute(cmd command, exec func(context.Context, *authclient.AuthClient) (any, error), opts options) (any, error) {
	if cmd.offline {
		return exec(context.Background(), nil)
	}

	var client *authclient.AuthClient
	var clientCfg *config.ClientConfig
	app := fx.New(
		fx.Supply(di.ConfigPath(opts.configPath)),
		di.ClientModules,
		fx.Decorate(func(cfg *logger.Config) *logger.Config {
			if opts.verbose {
				return cfg
			}
			quiet := *cfg
			quiet.Level = "error"
			return &quiet
		}),
		di.Silent,
		fx.Populate(&client, &clientCfg),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return nil, err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	// the transport timeout bounds each round trip; this bounds the command
	ctx, cancelRun := context.WithTimeout(context.Background(), clientCfg.Timeout+time.Second)
	defer cancelRun()
	return exec(ctx, client)
}

func registerFlags(fs *flag.FlagSet) func(context.Context, *authclient.AuthClient) (any, error) {
	var req authclient.RegistrationRequest
	var area optionalString
	fs.StringVar(&req.Username, "username", "", "username")
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.Password, "password", "", "password")
	fs.StringVar(&req.FullName, "full-name", "", "full name")
	fs.StringVar(&req.RegistrationNumber, "registration-number", "", "registration number")
	fs.Var(&area, "area", "area (omitted when not given)")

	return func(ctx context.Context, client *authclient.AuthClient) (any, error) {
		req.Area = area.value
		return client.Register(ctx, req)
	}
}

func loginFlags(fs *flag.FlagSet) func(context.Context, *authclient.AuthClient) (any, error) {
	var req authclient.LoginRequest
	fs.StringVar(&req.Login, "login", "", "username or email")
	fs.StringVar(&req.Password, "password", "", "password")
	fs.StringVar(&req.OrganizationID, "organization", "", "organization id")

	return func(ctx context.Context, client *authclient.AuthClient) (any, error) {
		return client.Login(ctx, req)
	}
}

func refreshFlags(fs *flag.FlagSet) func(context.Context, *authclient.AuthClient) (any, error) {
	token := fs.String("refresh-token", "", "refresh token")

	return func(ctx context.Context, client *authclient.AuthClient) (any, error) {
		return client.Refresh(ctx, *token)
	}
}

type logoutResult struct {
	UserID    string `json:"userId" yaml:"userId"`
	LoggedOut bool   `json:"loggedOut" yaml:"loggedOut"`
}

func logoutFlags(fs *flag.FlagSet) func(context.Context, *authclient.AuthClient) (any, error) {
	userID := fs.String("user-id", "", "id of the user to log out")

	return func(ctx context.Context, client *authclient.AuthClient) (any, error) {
		if err := client.Logout(ctx, *userID); err != nil {
			return nil, err
		}
		return logoutResult{UserID: *userID, LoggedOut: true}, nil
	}
}

func inspectFlags(fs *flag.FlagSet) func(context.Context, *authclient.AuthClient) (any, error) {
	token := fs.String("token", "", "JWT to decode")

	return func(context.Context, *authclient.AuthClient) (any, error) {
		if *token == "" {
			return nil, fmt.Errorf("%w: --token is required", errUsage)
		}
		return security.InspectToken(*token, time.Now())
	}
}

// optionalString tells an absent flag apart from an explicit empty value
type optionalString struct {
	value *string
}

func (o *optionalString) String() string {
	if o.value == nil {
		return ""
	}
	return *o.value
}

func (o *optionalString) Set(s string) error {
	o.value = &s
	return nil
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func render(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printError(w io.Writer, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		fmt.Fprintf(w, "error: %s: %s\n", appErr.Code, appErr.Message)
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "usage: authctl [--config file] [--output json|yaml] [--verbose] <command> [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "commands:")
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %-10s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "global flags:")
	fs.PrintDefaults()
}
