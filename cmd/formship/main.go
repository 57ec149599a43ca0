package main

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/formship/internal/cliconfig"
	"github.com/bft-labs/formship/pkg/log"
)

const longHelp = `Upload HTML forms, files included, from the command line.

Highlights:
  - Streams multipart bodies with upload and download progress.
  - Falls back to a hidden frame submission with --force-frame.
  - Decodes text, JSON and XML responses.
  - Watches a drop folder and uploads every file written into it.
  - Configure via file (TOML or YAML), FORMSHIP_* environment or flags.`

var exampleUsage = strings.TrimSpace(`
  formship send --url https://api.example.com/upload report.pdf
  formship send --url /upload --page-url https://app.example.com/ --page-file form.html --form-id avatar --response-type json me.png
  formship watch --config $HOME/.formship/config.yaml --dir ./outbox
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// settings is the flag-level state shared by the subcommands.
type settings struct {
	cfg     cliconfig.Config
	cfgPath string
}

// load resolves the effective configuration: file, then environment, then
// flags that were set explicitly.
func (s *settings) load(cmd *cobra.Command) (cliconfig.Config, string, error) {
	cfg := s.cfg.Clone()

	cfgFile := s.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return cfg, "", fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
			return cfg, "", err
		}
	} else {
		cfgFile = ""
	}

	if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
		return cfg, "", err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, "", err
	}
	return cfg, cfgFile, nil
}

func (s *settings) bindFlags(fs *pflag.FlagSet) {
	c := &s.cfg
	fs.StringVar(&s.cfgPath, "config", "", "path to config file, .toml or .yaml (default: $HOME/.formship/config.toml)")
	fs.StringVar(&c.UploadURL, "url", c.UploadURL, "upload URL, resolved against the page URL")
	fs.StringVar(&c.PageURL, "page-url", c.PageURL, "URL the form page is loaded from (defaults to the upload URL's origin)")
	fs.StringVar(&c.PageFile, "page-file", c.PageFile, "HTML file containing the form (optional)")
	fs.StringVar(&c.FormID, "form-id", c.FormID, "id of the form to submit")
	fs.StringVar(&c.FileField, "file-field", c.FileField, "name of the file input files are attached to")

	fs.StringToStringVar(&c.Fields, "field", c.Fields, "form field as name=value (repeatable)")
	fs.StringToStringVar(&c.Headers, "header", c.Headers, "request header as name=value (repeatable)")
	fs.StringToStringVar(&c.Data, "data", c.Data, "extra data entry as name=value (repeatable)")

	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "upload timeout, 0 disables it")
	fs.BoolVar(&c.ForceFrame, "force-frame", c.ForceFrame, "submit through a hidden frame instead of streaming")
	fs.StringVar(&c.ResponseType, "response-type", c.ResponseType, "expected response: none, text, json or xml")
	fs.BoolVar(&c.Credentials, "credentials", c.Credentials, "keep and send cookies")
	fs.BoolVar(&c.CrossOrigin, "cross-origin", c.CrossOrigin, "expect the frame response as a posted message")
	fs.StringVar(&c.AllowedOrigin, "allowed-origin", c.AllowedOrigin, "origin allowed to post the frame response, * for any")

	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
}

func newLogger(level string) log.Logger {
	return log.NewZerologAdapter(os.Stderr, level).With(log.String("app", "formship"))
}

func main() {
	s := &settings{cfg: cliconfig.DefaultConfig()}

	root := &cobra.Command{
		Use:           "formship",
		Short:         "Upload HTML forms, files included, from the command line",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	s.bindFlags(root.PersistentFlags())

	client := &http.Client{}
	root.AddCommand(newSendCommand(s, client), newWatchCommand(s, client))

	if err := root.Execute(); err != nil {
		newLogger(s.cfg.LogLevel).Error("formship", log.Err(err))
		os.Exit(1)
	}
}
