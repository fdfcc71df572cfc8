package output

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/google/shlex"
	"github.com/natefinch/atomic"
	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/ironwatch/internal/adapters/input"
	"github.com/xoelrdgz/ironwatch/internal/domain"
)

// PublisherConfig configures the server configuration publisher.
type PublisherConfig struct {
	Name          string // Deployment name, exposed to the template as .Name
	TemplatePath  string // text/template source file
	Location      string // Output path date template, resolved per month
	ReloadCommand string // Shell-quoted command run after publishing
}

// templateData is the root object handed to the configuration template.
type templateData struct {
	Name        string
	Month       time.Time
	GeneratedAt time.Time
	Records     []domain.BlockRecord
}

// FilePublisher renders the block list into the web server's deny
// configuration and asks the server to reload it.
//
// Publish Flow:
//  1. Parse the template (sprig functions available)
//  2. Render with the month's records
//  3. Resolve the location for that month and create its directory
//  4. Atomically replace the file
type FilePublisher struct {
	config PublisherConfig
	now    func() time.Time
}

func NewFilePublisher(config PublisherConfig) *FilePublisher {
	return &FilePublisher{config: config, now: time.Now}
}

// Publish implements ports.ConfigPublisher and returns the written path.
func (p *FilePublisher) Publish(ctx context.Context, month time.Time, records []domain.BlockRecord) (string, error) {
	src, err := os.ReadFile(p.config.TemplatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read config template: %w", err)
	}

	tmpl, err := template.New(filepath.Base(p.config.TemplatePath)).
		Funcs(sprig.TxtFuncMap()).
		Parse(string(src))
	if err != nil {
		return "", fmt.Errorf("failed to parse config template: %w", err)
	}

	if records == nil {
		records = []domain.BlockRecord{}
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, templateData{
		Name:        p.config.Name,
		Month:       month,
		GeneratedAt: p.now(),
		Records:     records,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render config template: %w", err)
	}

	path := input.ResolvePathTemplate(p.config.Location, month)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}

	log.Info().
		Str("path", path).
		Int("records", len(records)).
		Str("month", month.Format("2006-01")).
		Msg("Server configuration published")
	return path, nil
}

// Reload runs the reload command. The command is split shell-style but
// executed directly, without a shell. An empty command is a no-op.
func (p *FilePublisher) Reload(ctx context.Context) error {
	if strings.TrimSpace(p.config.ReloadCommand) == "" {
		log.Debug().Msg("No reload command configured")
		return nil
	}

	args, err := shlex.Split(p.config.ReloadCommand)
	if err != nil {
		return fmt.Errorf("failed to parse reload command %q: %w", p.config.ReloadCommand, err)
	}
	if len(args) == 0 {
		return nil
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Error().
			Err(err).
			Str("command", args[0]).
			Str("stderr", strings.TrimSpace(stderr.String())).
			Msg("Server reload failed")
		return fmt.Errorf("reload command failed: %w", err)
	}

	log.Info().
		Str("command", args[0]).
		Str("stdout", strings.TrimSpace(stdout.String())).
		Msg("Server reloaded")
	return nil
}
