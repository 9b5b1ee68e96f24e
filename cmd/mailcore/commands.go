package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hickar/mailcore/internal/app/email"
	"github.com/hickar/mailcore/internal/app/render"
	"github.com/hickar/mailcore/internal/app/selection"
	"github.com/hickar/mailcore/internal/pkg/logger"
	"github.com/hickar/mailcore/internal/pkg/units"
)

func newPartsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parts [file]",
		Short: "List every leaf part of a message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, release, err := a.message(argAt(args, 0))
			if err != nil {
				return err
			}
			defer release()

			found := m.BodyParts()
			if err = m.Err(); err != nil {
				return err
			}

			table := newTable(cmd.OutOrStdout(), "#", "Content type", "Disposition", "Name", "Size")
			for _, p := range found {
				table.Append([]string{
					strconv.Itoa(p.Index + 1),
					p.ContentType,
					p.Disposition.String(),
					p.Name,
					units.HumanSize(float64(p.Size)),
				})
			}
			table.Render()

			return nil
		},
	}
}

func newAttachmentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attachments [file]",
		Short: "List the attachments of a message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, release, err := a.message(argAt(args, 0))
			if err != nil {
				return err
			}
			defer release()

			attachments := m.Attachments()
			if err = m.Err(); err != nil {
				return err
			}

			table := newTable(cmd.OutOrStdout(), "#", "Name", "Content type", "Size")
			for _, att := range attachments {
				table.Append([]string{
					strconv.Itoa(att.Ordinal),
					att.Name,
					att.Part.ContentType,
					units.HumanSize(float64(att.Part.Size)),
				})
			}
			table.Render()

			return nil
		},
	}
}

func newExtractCmd(a *app) *cobra.Command {
	var bodyPart bool

	cmd := &cobra.Command{
		Use:   "extract [file] <ordinal>",
		Short: "Write the decoded content of an attachment or body part to stdout",
		Long: "Write the decoded content of an attachment or body part to stdout.\n" +
			"A leading integer argument is taken as the ordinal of the selected message's part;\n" +
			"a file whose name is all digits must be written with a directory, e.g. ./123.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, rest := splitPath(args)
			if len(rest) != 1 {
				return fmt.Errorf("expected [file] <ordinal>, got %d arguments", len(args))
			}

			ordinal, err := parseOrdinal(rest[0])
			if err != nil {
				return err
			}

			m, release, err := a.message(path)
			if err != nil {
				return err
			}
			defer release()

			var content []byte
			if bodyPart {
				content, err = m.BodyPartBytes(ordinal)
			} else {
				content, err = m.AttachmentBytes(ordinal)
			}
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(content)
			return err
		},
	}

	cmd.Flags().BoolVar(&bodyPart, "part", false, "Address body parts over all leaves instead of attachments")

	return cmd
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save [file] <ordinal> [dest]",
		Short: "Save an attachment to disk",
		Long: "Save an attachment to disk. The destination defaults to the attachment name inside save_dir.\n" +
			"A leading integer argument is taken as the ordinal of the selected message's attachment;\n" +
			"a file whose name is all digits must be written with a directory, e.g. ./123.",
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, rest := splitPath(args)
			if len(rest) == 0 || len(rest) > 2 {
				return fmt.Errorf("expected [file] <ordinal> [dest], got %d arguments", len(args))
			}

			ordinal, err := parseOrdinal(rest[0])
			if err != nil {
				return err
			}

			m, release, err := a.message(path)
			if err != nil {
				return err
			}
			defer release()

			dst := argAt(rest, 1)
			if dst == "" {
				dst = a.defaultDestination(m, ordinal)
			}

			ctx := logger.WithAttrs(cmd.Context(),
				slog.String("source", m.Source()),
				slog.Int("ordinal", ordinal),
			)

			ok, err := m.SaveAttachment(ordinal, dst)
			switch {
			case err != nil:
				a.logger.ErrorContext(ctx, "attachment not saved", slog.Any("error", err))
				return err
			case !ok:
				return fmt.Errorf("%s has no attachment %d", m.Source(), ordinal)
			}

			a.logger.InfoContext(ctx, "attachment saved", slog.String("path", dst))
			fmt.Fprintln(cmd.OutOrStdout(), dst)

			return nil
		},
	}
}

func (a *app) defaultDestination(m *email.Message, ordinal int) string {
	attachments := m.Attachments()
	if ordinal < 1 || ordinal > len(attachments) {
		return a.cfg.SaveDir
	}

	// Names come from the message and must not escape save_dir.
	return filepath.Join(a.cfg.SaveDir, filepath.Base(attachments[ordinal-1].Name))
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [file]",
		Short: "Print the headers, readable body and attachment list of a message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, release, err := a.message(argAt(args, 0))
			if err != nil {
				return err
			}
			defer release()

			summary, err := render.Render(m, a.cfg.Template)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var filterExpr string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the messages of the mailbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.mailbox == nil {
				return fmt.Errorf("%w: no mailbox configured, pass --mbox", email.ErrNoMessage)
			}

			messages := a.mailbox.Messages()
			indexes := make([]int, len(messages))
			for idx := range messages {
				indexes[idx] = idx
			}

			if filterExpr != "" {
				filter, err := selection.ParseFilter(filterExpr)
				if err != nil {
					return fmt.Errorf("invalid filter: %w", err)
				}
				indexes = a.mailbox.Match(filter)
			}

			selected := a.mailbox.Selected()
			table := newTable(cmd.OutOrStdout(), "", "#", "From", "Subject", "Attachments")
			for _, idx := range indexes {
				m := messages[idx]

				marker := ""
				if idx == selected {
					marker = "*"
				}

				from := ""
				if addresses := m.From(); len(addresses) > 0 {
					from = addresses[0].Address
				}

				table.Append([]string{
					marker,
					strconv.Itoa(idx),
					from,
					m.Subject(),
					strconv.Itoa(m.CountAttachments()),
				})
			}
			table.Render()

			return nil
		},
	}

	cmd.Flags().StringVar(&filterExpr, "filter", "", "Only list messages matching the expression, e.g. \"ATTACHMENTS && FROM == 'alice'\"")

	return cmd
}

func argAt(args []string, idx int) string {
	if idx < len(args) {
		return args[idx]
	}
	return ""
}

// splitPath separates an optional leading file argument from the rest.
// A leading integer is an ordinal, which means the selected message is meant.
// Files named by digits only are reachable as "./123".
func splitPath(args []string) (string, []string) {
	if len(args) == 0 {
		return "", args
	}
	if _, err := strconv.Atoi(args[0]); err == nil {
		return "", args
	}
	return args[0], args[1:]
}

func parseOrdinal(s string) (int, error) {
	ordinal, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid ordinal %q: %w", s, err)
	}
	return ordinal, nil
}
