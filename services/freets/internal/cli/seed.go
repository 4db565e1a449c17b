package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/example/fritter/services/freets/internal/comments"
	"github.com/example/fritter/services/freets/internal/store"
)

// Fixture is the seed file format.
type Fixture struct {
	Freets   []store.Post     `yaml:"freets"`
	Comments []FixtureComment `yaml:"comments"`
}

// FixtureComment is created through the comment service, so every creation
// rule applies. Parent refers to the Key of an earlier entry; a reply takes
// its freet from the parent.
type FixtureComment struct {
	Key     string `yaml:"key"`
	Freet   string `yaml:"freet,omitempty"`
	Parent  string `yaml:"parent,omitempty"`
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
	Private bool   `yaml:"private,omitempty"`
}

type seedResult struct {
	DryRun   bool              `json:"dry_run" yaml:"dry_run"`
	Freets   int               `json:"freets" yaml:"freets"`
	Comments int               `json:"comments" yaml:"comments"`
	IDs      map[string]string `json:"ids" yaml:"ids"`
}

// LoadFixture parses a seed file, rejecting unknown fields.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	for i, p := range f.Freets {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.AuthorID) == "" {
			return fmt.Errorf("freets[%d]: id and author_id are required", i)
		}
	}
	keys := make(map[string]struct{}, len(f.Comments))
	for i, c := range f.Comments {
		if c.Key == "" {
			return fmt.Errorf("comments[%d]: key is required", i)
		}
		if _, dup := keys[c.Key]; dup {
			return fmt.Errorf("comments[%d]: duplicate key %q", i, c.Key)
		}
		if c.Parent != "" {
			if _, ok := keys[c.Parent]; !ok {
				return fmt.Errorf("comments[%d]: parent %q must be defined earlier", i, c.Parent)
			}
		}
		keys[c.Key] = struct{}{}
	}
	return nil
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load freets and comments from a YAML fixture",
		Long: `Load freets and comments from a YAML fixture.

Without a database the fixture is applied to an in-memory store and only
the result is reported, which checks a fixture against the comment rules.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := LoadFixture(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "load fixture", err)
			}
			b, err := rootOpts.open(cmd.Context(), rootOpts.DatabaseURL)
			if err != nil {
				return WrapExitError(ExitCommandError, "connect", err)
			}
			defer b.Close()

			res, err := applyFixture(cmd.Context(), b, fx, rootOpts.logger())
			if err != nil {
				return WrapExitError(ExitFailure, "seed", err)
			}
			res.DryRun = rootOpts.DatabaseURL == ""
			return writeOutput(cmd.OutOrStdout(), rootOpts.Format, res)
		},
	}
}

func applyFixture(ctx context.Context, b *Backend, fx *Fixture, log *zap.Logger) (seedResult, error) {
	res := seedResult{IDs: make(map[string]string, len(fx.Comments))}
	for _, p := range fx.Freets {
		if err := b.Posts.Upsert(ctx, p); err != nil {
			return res, fmt.Errorf("freet %s: %w", p.ID, err)
		}
		res.Freets++
	}

	svc := comments.NewService(b.Comments, b.Posts, comments.WithLogger(log))
	for _, fc := range fx.Comments {
		in := comments.CreateInput{Author: fc.Author, Content: fc.Content, PostID: fc.Freet}
		if fc.Parent != "" {
			pid := res.IDs[fc.Parent]
			in.ParentID = &pid
		} else {
			private := fc.Private
			in.IsPrivate = &private
		}
		c, err := svc.Create(ctx, in)
		if err != nil {
			return res, fmt.Errorf("comment %s: %w", fc.Key, err)
		}
		res.IDs[fc.Key] = c.ID
		res.Comments++
	}
	return res, nil
}
