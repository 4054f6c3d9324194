package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/okvist/nudge/internal/command"
	"github.com/okvist/nudge/internal/ringtone"
	"github.com/okvist/nudge/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store       *storage.Store
	Registry    *ringtone.Registry
	Interpreter *command.Interpreter
}

// NewMCPServer creates an MCP server with all nudge tools and
// resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"nudge",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("nudge — local voice reminder daemon: create, list, and complete reminders."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Create a reminder from a natural-language utterance, e.g. \"remind me to call mom tomorrow at 9am\"."),
			mcp.WithString("utterance", mcp.Description("The spoken-style reminder phrase"), mcp.Required()),
		),
		mcpAddReminder(deps),
	)

	s.AddTool(
		mcp.NewTool("create_reminder",
			mcp.WithDescription("Create a reminder from structured fields."),
			mcp.WithString("title", mcp.Description("Reminder title"), mcp.Required()),
			mcp.WithString("due_at", mcp.Description("Due time in RFC3339 format"), mcp.Required()),
			mcp.WithString("description", mcp.Description("Optional longer description")),
			mcp.WithString("priority", mcp.Description("normal or urgent")),
			mcp.WithString("channel", mcp.Description("alarm, ring, or call")),
			mcp.WithString("ringtone", mcp.Description("Registered ringtone name")),
		),
		mcpCreateReminder(deps),
	)

	s.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List reminders, pending only by default."),
			mcp.WithBoolean("all", mcp.Description("Include completed reminders")),
		),
		mcpListReminders(deps),
	)

	s.AddTool(
		mcp.NewTool("complete_reminder",
			mcp.WithDescription("Mark a reminder as completed."),
			mcp.WithString("id", mcp.Description("Reminder id"), mcp.Required()),
		),
		mcpCompleteReminder(deps),
	)

	s.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a reminder."),
			mcp.WithString("id", mcp.Description("Reminder id"), mcp.Required()),
		),
		mcpDeleteReminder(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"reminders://pending",
			"Pending Reminders",
			mcp.WithResourceDescription("All reminders not yet completed, ordered by due time"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourcePending(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"ringtones://all",
			"Ringtone Registry",
			mcp.WithResourceDescription("Registered ringtone names and sources"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRingtones(deps),
	)

	return s
}

func mcpAddReminder(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		utterance, err := req.RequireString("utterance")
		if err != nil {
			return mcpError("utterance is required"), nil
		}

		cmd, err := deps.Interpreter.Interpret(utterance, time.Now())
		if err != nil {
			return mcpError(fmt.Sprintf("not a reminder command: %v", err)), nil
		}

		reminder, err := deps.Store.CreateReminder(storage.Draft{
			Title:    cmd.Title,
			DueAt:    cmd.DueAt,
			Priority: cmd.Priority,
			Channel:  cmd.Channel,
			Ringtone: cmd.Ringtone,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to create reminder: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Created reminder %s: %q due %s", reminder.ID, reminder.Title, reminder.DueAt.Format(time.RFC3339))), nil
	}
}

func mcpCreateReminder(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}
		dueRaw, err := req.RequireString("due_at")
		if err != nil {
			return mcpError("due_at is required"), nil
		}
		dueAt, err := time.Parse(time.RFC3339, dueRaw)
		if err != nil {
			return mcpError(fmt.Sprintf("invalid due_at: %v", err)), nil
		}

		reminder, err := deps.Store.CreateReminder(storage.Draft{
			Title:       title,
			Description: req.GetString("description", ""),
			DueAt:       dueAt,
			Priority:    req.GetString("priority", ""),
			Channel:     req.GetString("channel", ""),
			Ringtone:    req.GetString("ringtone", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to create reminder: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Created reminder %s: %q due %s", reminder.ID, reminder.Title, reminder.DueAt.Format(time.RFC3339))), nil
	}
}

func mcpListReminders(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var (
			reminders []storage.Reminder
			err       error
		)
		if req.GetBool("all", false) {
			reminders, err = deps.Store.ListReminders()
		} else {
			reminders, err = deps.Store.ListPendingReminders()
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list reminders: %v", err)), nil
		}

		if len(reminders) == 0 {
			return mcpText("[]"), nil
		}
		b, err := json.Marshal(reminders)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal reminders: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpCompleteReminder(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		reminder, err := deps.Store.CompleteReminder(id)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("reminder %s not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to complete reminder: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Completed reminder %s: %q", reminder.ID, reminder.Title)), nil
	}
}

func mcpDeleteReminder(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		err = deps.Store.DeleteReminder(id)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("reminder %s not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Deleted reminder %s", id)), nil
	}
}

func mcpResourcePending(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		reminders, err := deps.Store.ListPendingReminders()
		if err != nil {
			return nil, fmt.Errorf("failed to list pending reminders: %w", err)
		}
		if reminders == nil {
			reminders = []storage.Reminder{}
		}

		b, err := json.Marshal(reminders)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal reminders: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceRingtones(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Registry.List())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ringtones: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
