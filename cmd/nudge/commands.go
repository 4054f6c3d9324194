package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okvist/nudge/internal/config"
	"github.com/okvist/nudge/internal/ringtone"
	"github.com/okvist/nudge/internal/session"
	"github.com/okvist/nudge/internal/storage"
)

// --- add ---

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a reminder",
	Long: `Create a reminder with structured fields.

Examples:
  nudge add --title "Call mom" --in 2h --priority urgent --channel call
  nudge add --title "Water plants" --at "2025-06-01 09:00" --ringtone bell
  nudge add --title "Standup" --at 09:25`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		desc, _ := cmd.Flags().GetString("desc")
		at, _ := cmd.Flags().GetString("at")
		in, _ := cmd.Flags().GetString("in")
		priority, _ := cmd.Flags().GetString("priority")
		channel, _ := cmd.Flags().GetString("channel")
		ringtoneName, _ := cmd.Flags().GetString("ringtone")

		if title == "" {
			return fmt.Errorf("--title is required")
		}
		dueAt, err := resolveDue(at, in, time.Now())
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/reminders", storage.Draft{
			Title:       title,
			Description: desc,
			DueAt:       dueAt,
			Priority:    priority,
			Channel:     channel,
			Ringtone:    ringtoneName,
		})
		if err != nil {
			return err
		}

		var created storage.Reminder
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}

		printSuccess("Reminder %s: %q due %s", shortID(created.ID), created.Title, created.DueAt.Local().Format("Mon Jan 2 15:04"))
		return nil
	},
}

func init() {
	addCmd.Flags().String("title", "", "reminder title")
	addCmd.Flags().String("desc", "", "longer description")
	addCmd.Flags().String("at", "", `due time: RFC3339, "2006-01-02 15:04", or "15:04" (today)`)
	addCmd.Flags().String("in", "", `due after a duration, e.g. "90m" or "2h"`)
	addCmd.Flags().String("priority", "", "normal or urgent")
	addCmd.Flags().String("channel", "", "alarm, ring, or call")
	addCmd.Flags().String("ringtone", "", "registered ringtone name")
}

// resolveDue turns the --at / --in flags into an absolute due time.
func resolveDue(at, in string, now time.Time) (time.Time, error) {
	switch {
	case at != "" && in != "":
		return time.Time{}, fmt.Errorf("--at and --in are mutually exclusive")
	case in != "":
		d, err := time.ParseDuration(in)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --in duration %q: %w", in, err)
		}
		if d <= 0 {
			return time.Time{}, fmt.Errorf("--in duration must be positive")
		}
		return now.Add(d), nil
	case at != "":
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			return t, nil
		}
		if t, err := time.ParseInLocation("2006-01-02 15:04", at, time.Local); err == nil {
			return t, nil
		}
		if t, err := time.ParseInLocation("15:04", at, time.Local); err == nil {
			due := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
			if !due.After(now) {
				due = due.AddDate(0, 0, 1)
			}
			return due, nil
		}
		return time.Time{}, fmt.Errorf("could not parse --at value %q", at)
	default:
		return time.Time{}, fmt.Errorf("one of --at or --in is required")
	}
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List reminders (pending by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/reminders"
		if all {
			path += "?all=1"
		}
		resp, err := client.get(path)
		if err != nil {
			return err
		}

		var reminders []storage.Reminder
		if err := decodeJSON(resp, &reminders); err != nil {
			return err
		}

		if len(reminders) == 0 {
			fmt.Println("no reminders")
			return nil
		}
		for _, r := range reminders {
			fmt.Println(formatReminder(r))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("all", false, "include completed reminders")
}

func formatReminder(r storage.Reminder) string {
	marker := "[ ]"
	if r.IsCompleted {
		marker = "[x]"
	}
	line := fmt.Sprintf("%s %s  %s  %s", marker, shortID(r.ID), r.DueAt.Local().Format("Mon Jan 2 15:04"), r.Title)

	var notes []string
	if r.Priority == storage.PriorityUrgent {
		notes = append(notes, "urgent")
	}
	if r.Channel != "" && r.Channel != storage.ChannelAlarm {
		notes = append(notes, r.Channel)
	}
	if r.Ringtone != "" {
		notes = append(notes, "♪ "+r.Ringtone)
	}
	if len(notes) > 0 {
		line += "  (" + strings.Join(notes, ", ") + ")"
	}
	return line
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// --- done / rm ---

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a reminder as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		id, err := resolveID(client, args[0])
		if err != nil {
			return err
		}
		resp, err := client.post("/reminders/"+id+"/complete", nil)
		if err != nil {
			return err
		}

		var r storage.Reminder
		if err := decodeJSON(resp, &r); err != nil {
			return err
		}
		printSuccess("Completed %q", r.Title)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a reminder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		id, err := resolveID(client, args[0])
		if err != nil {
			return err
		}
		resp, err := client.delete("/reminders/" + id)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Deleted %s", shortID(id))
		return nil
	},
}

// resolveID expands a short id prefix to the full reminder id.
func resolveID(client *apiClient, prefix string) (string, error) {
	resp, err := client.get("/reminders?all=1")
	if err != nil {
		return "", err
	}
	var reminders []storage.Reminder
	if err := decodeJSON(resp, &reminders); err != nil {
		return "", err
	}

	var match string
	for _, r := range reminders {
		if r.ID == prefix {
			return r.ID, nil
		}
		if strings.HasPrefix(r.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", prefix)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no reminder matches id %q", prefix)
	}
	return match, nil
}

// --- say / listen ---

var sayCmd = &cobra.Command{
	Use:   "say <utterance>",
	Short: "Run a natural-language reminder command",
	Long: `Run a natural-language reminder command, the same pipeline the voice
session uses.

Examples:
  nudge say "remind me to call mom tomorrow at 9am"
  nudge say "add reminder stretch in 30 minutes"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return interpretUtterance(client, strings.Join(args, " "))
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Capture one spoken reminder command",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		speech := strings.Fields(cfg.Audio.SpeechCommand)
		var name string
		var cmdArgs []string
		if len(speech) > 0 {
			name = speech[0]
			cmdArgs = speech[1:]
		}
		eng, err := session.Detect(name, cmdArgs...)
		if errors.Is(err, session.ErrUnsupported) {
			printError("speech recognition is not available: set audio.speech_command to a speech-to-text command")
			return err
		}
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		s := session.New(eng, func(utterance string) {
			printStep("heard: %s", utterance)
			if err := interpretUtterance(client, utterance); err != nil {
				printError("%v", err)
			}
		}, 0)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := s.Start(ctx); err != nil {
			return fmt.Errorf("starting capture: %w", err)
		}
		printStep("Listening... (Ctrl-C to stop)")

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.Stop()
				// Give the final transcript a moment to flush.
				time.Sleep(500 * time.Millisecond)
				return nil
			case <-ticker.C:
				switch s.Status() {
				case session.StatusInactive:
					return nil
				case session.StatusError:
					return fmt.Errorf("speech recognition failed")
				}
			}
		}
	},
}

func interpretUtterance(client *apiClient, utterance string) error {
	resp, err := client.post("/interpret", map[string]string{"utterance": utterance})
	if err != nil {
		return err
	}

	var created storage.Reminder
	if err := decodeJSON(resp, &created); err != nil {
		return err
	}
	printSuccess("Reminder %s: %q due %s", shortID(created.ID), created.Title, created.DueAt.Local().Format("Mon Jan 2 15:04"))
	return nil
}

// --- ringtones ---

var ringtonesCmd = &cobra.Command{
	Use:   "ringtones",
	Short: "Manage the ringtone registry",
}

var ringtonesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered ringtones",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/ringtones")
		if err != nil {
			return err
		}
		var entries []ringtone.Entry
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		for _, e := range entries {
			kind := "custom"
			if e.BuiltIn {
				kind = "built-in"
			}
			fmt.Printf("%-12s %-9s %s\n", e.Name, kind, e.Source)
		}
		return nil
	},
}

var ringtonesAddCmd = &cobra.Command{
	Use:   "add <name> <source>",
	Short: "Add or replace a custom ringtone",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.put("/ringtones/"+args[0], map[string]string{"source": args[1]})
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Ringtone %q saved", args[0])
		return nil
	},
}

var ringtonesRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a custom ringtone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete("/ringtones/" + args[0])
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Ringtone %q removed", args[0])
		return nil
	},
}

func init() {
	ringtonesCmd.AddCommand(ringtonesListCmd)
	ringtonesCmd.AddCommand(ringtonesAddCmd)
	ringtonesCmd.AddCommand(ringtonesRmCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, info := range config.ShowAll(cfg) {
			fmt.Printf("%-24s %-32s %s\n", info.Key, info.Value, info.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}
		printSuccess("Set %s = %s", args[0], args[1])
		printWarning("restart the server for the change to take effect")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
