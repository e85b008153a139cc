package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formfields/pkg/fields"
	"github.com/goliatone/go-formfields/pkg/infer"
	"github.com/goliatone/go-formfields/pkg/project"
	"github.com/goliatone/go-formfields/pkg/prompt"
	"github.com/goliatone/go-formfields/pkg/reconcile"
	"github.com/goliatone/go-formfields/pkg/resolver"
	"github.com/goliatone/go-formfields/pkg/schema"
)

func newInferCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "infer <example.{json,yaml}|->",
		Short: "Infer a schema from an example value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readFile(args[0])
			if err != nil {
				return err
			}
			example, err := infer.DecodeExample(data)
			if err != nil {
				return err
			}
			s, err := infer.SchemaByExample(example)
			if err != nil {
				return err
			}
			return a.writeJSON(s)
		},
	}
}

type documentOutput struct {
	Schema  *schema.Schema  `json:"schema,omitempty"`
	Options *schema.Options `json:"options,omitempty"`
}

func newSlaveCmd(a *app) *cobra.Command {
	var schemaPath, optionsPath string
	cmd := &cobra.Command{
		Use:   "slave",
		Short: "Project master schema and options into their read-only slave form",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if schemaPath == "" && optionsPath == "" {
				return errors.New("at least one of --schema or --options is required")
			}
			var out documentOutput
			if schemaPath != "" {
				data, err := a.readFile(schemaPath)
				if err != nil {
					return err
				}
				s, err := schema.ParseSchema(data)
				if err != nil {
					return err
				}
				out.Schema = project.SlaveSchema(s)
			}
			if optionsPath != "" {
				data, err := a.readFile(optionsPath)
				if err != nil {
					return err
				}
				o, err := schema.ParseOptions(data)
				if err != nil {
					return err
				}
				out.Options = project.SlaveOptions(o)
			}
			return a.writeJSON(out)
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "master schema file")
	cmd.Flags().StringVar(&optionsPath, "options", "", "master options file")
	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	var slave bool
	cmd := &cobra.Command{
		Use:   "resolve <nodeID>",
		Short: "Load a node's schema and options from the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeCache, err := a.resolver()
			if err != nil {
				return err
			}
			defer closeCache()

			res, err := r.Load(commandContext(cmd), args[0], mode(slave))
			if err != nil {
				return err
			}
			return a.writeJSON(documentOutput{Schema: res.Schema, Options: res.Options})
		},
	}
	cmd.Flags().BoolVar(&slave, "slave", false, "return the read-only slave projection")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		slave     bool
		valuePath string
	)
	cmd := &cobra.Command{
		Use:   "edit <nodeID>",
		Short: "Edit a command value interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeCache, err := a.resolver()
			if err != nil {
				return err
			}
			defer closeCache()

			ctx := commandContext(cmd)
			field, err := a.commandField(ctx, r, args[0], slave)
			if err != nil {
				return err
			}

			var previous any
			if valuePath != "" {
				data, err := a.readFile(valuePath)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &previous); err != nil {
					return fmt.Errorf("decode value: %w", err)
				}
				if err := field.SetValue(previous); err != nil {
					return err
				}
			}

			current := field.Value()
			edited, err := prompt.EditValue(ctx, a.driver(cmd), field.Schema(), field.Options(), current)
			if err != nil {
				return err
			}
			if overridden := reconcile.Changed(edited, current, field.Schema()); len(overridden) > 0 {
				a.logger.Info("variant values edited", map[string]any{"paths": overridden})
			}
			field.SetLocalValue(edited)
			if err := field.Validate(ctx); err != nil {
				return fmt.Errorf("edit: value rejected: %w", err)
			}
			return a.writeJSON(field.Value())
		},
	}
	cmd.Flags().BoolVar(&slave, "slave", false, "edit against the slave projection")
	cmd.Flags().StringVar(&valuePath, "value", "", "JSON file holding the current value")
	return cmd
}

// commandField builds an appliance-command field from the registry and loads
// nodeID into it.
func (a *app) commandField(ctx context.Context, r *resolver.Resolver, nodeID string, slave bool) (*fields.CommandField, error) {
	created, err := fields.NewRegistry().Create(fields.TypeCommand, fields.Config{
		Name:     nodeID,
		Resolver: r,
		Logger:   a.logger,
		Options:  map[string]any{fields.OptionIsSlave: slave},
		GateKey:  a.cfg.Fields.GateKey,
	})
	if err != nil {
		return nil, err
	}
	field, ok := created.(*fields.CommandField)
	if !ok {
		return nil, fmt.Errorf("edit: unexpected field type %T", created)
	}

	loaded := make(chan error, 1)
	field.UpdateSchemaOptions(ctx, nodeID, func(err error) { loaded <- err })
	select {
	case err := <-loaded:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return field, nil
}
