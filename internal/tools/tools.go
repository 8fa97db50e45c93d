// Package tools exposes the virtual file system to a generation agent as
// Anthropic tool definitions. The agent only ever sees these operations plus
// the editor commands; it never receives a structural handle into the tree.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/patchbay-ui/patchbay/internal/editor"
	"github.com/patchbay-ui/patchbay/internal/vfs"
)

// AnthropicTool defines the interface for all tools
type AnthropicTool interface {
	// GetToolParam creates and returns an anthropic.ToolParam defining the tool
	GetToolParam() anthropic.ToolParam

	// Run takes a ToolUseBlock, performs the tool call, and returns a string result or an error. The error will be a
	// ToolInputError if it is recoverable by fixing inputs. A call to Run has no side effects if it returns
	// ToolInputError
	Run(ctx context.Context, block anthropic.ToolUseBlock, toolCtx *ToolContext) (*string, error)

	// Replay is the same as Run, except that it skips anything already persisted in the conversation, e.g. the content
	// returned by a view command. Call this to restore the file system state of a previous tool call when rebuilding a
	// session from stored history.
	Replay(ctx context.Context, block anthropic.ToolUseBlock, toolCtx *ToolContext) error
}

// ToolContext provides the session-scoped state tools operate on
type ToolContext struct {
	FS     *vfs.FS
	Editor *editor.Editor
}

// ToolInputError represents an error that could be recovered by correcting inputs to the tool. This error will be
// uploaded to the AI, so it must not contain any sensitive information
type ToolInputError struct {
	cause error
}

func (tie ToolInputError) Error() string {
	return fmt.Sprintf("tool input error: %s", tie.cause)
}

func (tie ToolInputError) Unwrap() error {
	return tie.cause
}

// asInputError converts recoverable file system and editor failures into
// ToolInputError so the agent gets a chance to correct its inputs
func asInputError(err error) error {
	if err == nil {
		return nil
	}
	for _, recoverable := range []error{
		vfs.ErrInvalidPath,
		vfs.ErrNotFound,
		vfs.ErrConflict,
		vfs.ErrInvalidOperation,
		editor.ErrNoMatch,
		editor.ErrAmbiguousMatch,
		editor.ErrOutOfRange,
	} {
		if errors.Is(err, recoverable) {
			return ToolInputError{cause: err}
		}
	}
	return err
}

// Base tool implementation helper
type BaseTool struct {
	Name string
}

// parseInputJSON is a helper to unmarshal tool input
func parseInputJSON(block anthropic.ToolUseBlock, target any) error {
	err := json.Unmarshal(block.Input, target)
	if err != nil {
		err = ToolInputError{cause: err}
	}
	return err
}

// TextEditorTool implements the str_replace_based_edit_tool
type TextEditorTool struct {
	BaseTool
}

// TextEditorInput represents the input for text editor commands
type TextEditorInput struct {
	Command    string `json:"command"`
	Path       string `json:"path"`
	OldStr     string `json:"old_str,omitempty"`
	NewStr     string `json:"new_str,omitempty"`
	FileText   string `json:"file_text,omitempty"`
	ViewRange  []int  `json:"view_range,omitempty"`
	InsertLine int    `json:"insert_line,omitempty"`
}

// NewTextEditorTool creates a new text editor tool
func NewTextEditorTool() *TextEditorTool {
	return &TextEditorTool{
		BaseTool: BaseTool{Name: "str_replace_based_edit_tool"},
	}
}

// GetToolParam returns the tool parameter definition
func (t *TextEditorTool) GetToolParam() anthropic.ToolParam {
	return anthropic.ToolParam{
		Type: "text_editor_20250429",
		Name: t.Name,
	}
}

// ParseToolUse parses the tool use block into structured input
func (t *TextEditorTool) ParseToolUse(block anthropic.ToolUseBlock) (*TextEditorInput, error) {
	if block.Name != t.Name {
		return nil, fmt.Errorf("tool use block is for %s, not %s", block.Name, t.Name)
	}

	var input TextEditorInput
	if err := parseInputJSON(block, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

// Run executes the text editor command
func (t *TextEditorTool) Run(ctx context.Context, block anthropic.ToolUseBlock, toolCtx *ToolContext) (*string, error) {
	return t.run(ctx, block, toolCtx, false)
}

func (t *TextEditorTool) Replay(ctx context.Context, block anthropic.ToolUseBlock, toolCtx *ToolContext) error {
	_, err := t.run(ctx, block, toolCtx, true)
	return err
}

func (t *TextEditorTool) run(_ context.Context, block anthropic.ToolUseBlock, toolCtx *ToolContext, replay bool) (*string, error) {
	input, err := t.ParseToolUse(block)
	if err != nil {
		return nil, fmt.Errorf("error parsing input: %w", err)
	}

	var result string
	switch input.Command {
	case "view":
		if replay {
			// No side effects to replay
			return nil, nil
		}
		result, err = t.executeView(input, toolCtx)
	case "str_replace":
		result, err = t.executeStrReplace(input, toolCtx)
	case "create":
		result, err = t.executeCreate(input, toolCtx)
	case "insert":
		result, err = t.executeInsert(input, toolCtx)
	case "undo_edit":
		result = ""
		err = ToolInputError{fmt.Errorf("undo_edit not supported")}
	default:
		result = ""
		err = ToolInputError{fmt.Errorf("unknown text editor command: %s", input.Command)}
	}

	if err != nil {
		return nil, fmt.Errorf("error running command '%s': %w", input.Command, err)
	}
	return &result, nil
}

// Implementation methods for each command
func (t *TextEditorTool) executeView(input *TextEditorInput, toolCtx *ToolContext) (string, error) {
	out, err := toolCtx.Editor.View(input.Path, input.ViewRange)
	if err != nil {
		return "", asInputError(err)
	}
	return out, nil
}

func (t *TextEditorTool) executeStrReplace(input *TextEditorInput, toolCtx *ToolContext) (string, error) {
	if err := toolCtx.Editor.StrReplace(input.Path, input.OldStr, input.NewStr); err != nil {
		return "", asInputError(err)
	}
	return fmt.Sprintf("Successfully replaced text in %s", input.Path), nil
}

func (t *TextEditorTool) executeCreate(input *TextEditorInput, toolCtx *ToolContext) (string, error) {
	if toolCtx.FS.FileExists(input.Path) {
		return "", ToolInputError{fmt.Errorf("file already exists: %s", input.Path)}
	}

	if err := toolCtx.FS.CreateFile(input.Path, input.FileText); err != nil {
		return "", asInputError(err)
	}
	return fmt.Sprintf("Successfully created file %s", input.Path), nil
}

func (t *TextEditorTool) executeInsert(input *TextEditorInput, toolCtx *ToolContext) (string, error) {
	if err := toolCtx.Editor.Insert(input.Path, input.InsertLine, input.NewStr); err != nil {
		return "", asInputError(err)
	}
	return fmt.Sprintf("Successfully inserted text at line %d in %s", input.InsertLine, input.Path), nil
}

// DeleteFileTool implements the delete_file tool
type DeleteFileTool struct {
	BaseTool
}

// DeleteFileInput represents the input for delete_file
type DeleteFileInput struct {
	Path string `json:"path"`
}

// NewDeleteFileTool creates a new delete file tool
func NewDeleteFileTool() *DeleteFileTool {
	return &DeleteFileTool{
		BaseTool: BaseTool{Name: "delete_file"},
	}
}

// GetToolParam returns the tool parameter definition
func (t *DeleteFileTool) GetToolParam() anthropic.ToolParam {
	return anthropic.ToolParam{
		Name:        t.Name,
		Description: anthropic.String("Delete a file or directory (recursively)"),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Absolute path to the file or directory to delete",
				},
			},
			Required: []string{"path"},
		},
	}
}

// ParseToolUse parses the tool use block
func (t *DeleteFileTool) ParseToolUse(block anthropic.ToolUseBlock) (*DeleteFileInput, error) {
	if block.Name != t.Name {
		return nil, fmt.Errorf("tool use block is for %s, not %s", block.Name, t.Name)
	}

	var input DeleteFileInput
	if err := parseInputJSON(block, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

// Run executes the delete file command
func (t *DeleteFileTool) Run(_ context.Context, block anthropic.ToolUseBlock, toolCtx *ToolContext) (*string, error) {
	input, err := t.ParseToolUse(block)
	if err != nil {
		return nil, fmt.Errorf("error parsing input: %w", err)
	}

	if input.Path == "" {
		return nil, ToolInputError{fmt.Errorf("path is required")}
	}

	if err := toolCtx.FS.DeleteNode(input.Path); err != nil {
		return nil, asInputError(err)
	}

	result := fmt.Sprintf("Successfully deleted: %s", input.Path)
	return &result, nil
}

func (t *DeleteFileTool) Replay(ctx context.Context, block anthropic.ToolUseBlock, toolCtx *ToolContext) error {
	// Deletion is an in-memory operation, so replay repeats the original run
	_, err := t.Run(ctx, block, toolCtx)
	return err
}

// RenameFileTool implements the rename_file tool
type RenameFileTool struct {
	BaseTool
}

// RenameFileInput represents the input for rename_file
type RenameFileInput struct {
	OldPath   string `json:"old_path"`
	NewPath   string `json:"new_path"`
	Overwrite bool   `json:"overwrite,omitempty"`
}

// NewRenameFileTool creates a new rename file tool
func NewRenameFileTool() *RenameFileTool {
	return &RenameFileTool{
		BaseTool: BaseTool{Name: "rename_file"},
	}
}

// GetToolParam returns the tool parameter definition
func (t *RenameFileTool) GetToolParam() anthropic.ToolParam {
	return anthropic.ToolParam{
		Name: t.Name,
		Description: anthropic.String("Rename or move a file or directory. Import statements referencing the old " +
			"path are not rewritten; update importers separately or they will fail to resolve in the preview"),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]any{
				"old_path": map[string]any{
					"type":        "string",
					"description": "Absolute path of the file or directory to rename",
				},
				"new_path": map[string]any{
					"type":        "string",
					"description": "Absolute destination path",
				},
				"overwrite": map[string]any{
					"type":        "boolean",
					"description": "Whether to overwrite an existing destination (default: false)",
				},
			},
			Required: []string{"old_path", "new_path"},
		},
	}
}

// ParseToolUse parses the tool use block
func (t *RenameFileTool) ParseToolUse(block anthropic.ToolUseBlock) (*RenameFileInput, error) {
	if block.Name != t.Name {
		return nil, fmt.Errorf("tool use block is for %s, not %s", block.Name, t.Name)
	}

	var input RenameFileInput
	if err := parseInputJSON(block, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

// Run executes the rename file command
func (t *RenameFileTool) Run(_ context.Context, block anthropic.ToolUseBlock, toolCtx *ToolContext) (*string, error) {
	input, err := t.ParseToolUse(block)
	if err != nil {
		return nil, fmt.Errorf("error parsing input: %w", err)
	}

	if input.OldPath == "" || input.NewPath == "" {
		return nil, ToolInputError{fmt.Errorf("old_path and new_path are required")}
	}

	if err := toolCtx.FS.Rename(input.OldPath, input.NewPath, input.Overwrite); err != nil {
		return nil, asInputError(err)
	}

	result := fmt.Sprintf("Successfully renamed %s to %s", input.OldPath, input.NewPath)
	return &result, nil
}

func (t *RenameFileTool) Replay(ctx context.Context, block anthropic.ToolUseBlock, toolCtx *ToolContext) error {
	// Renaming is an in-memory operation, so replay repeats the original run
	_, err := t.Run(ctx, block, toolCtx)
	return err
}

// ToolRegistry manages all available tools
type ToolRegistry struct {
	tools map[string]AnthropicTool
}

// NewToolRegistry creates a new tool registry with all available tools
func NewToolRegistry() *ToolRegistry {
	registry := &ToolRegistry{
		tools: make(map[string]AnthropicTool),
	}

	// Register all tools
	registry.Register(NewTextEditorTool())
	registry.Register(NewDeleteFileTool())
	registry.Register(NewRenameFileTool())

	return registry
}

// Register adds a tool to the registry
func (r *ToolRegistry) Register(tool AnthropicTool) {
	param := tool.GetToolParam()
	r.tools[param.Name] = tool
}

// GetTool retrieves a tool by name
func (r *ToolRegistry) GetTool(name string) (AnthropicTool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// GetAllToolParams returns all tool parameters for use with the API
func (r *ToolRegistry) GetAllToolParams() []anthropic.ToolParam {
	var params []anthropic.ToolParam
	for _, tool := range r.tools {
		params = append(params, tool.GetToolParam())
	}
	return params
}

// ProcessToolUse processes a tool use block with the appropriate tool
func (r *ToolRegistry) ProcessToolUse(ctx context.Context, block anthropic.ToolUseBlock, toolCtx *ToolContext) (*anthropic.ToolResultBlockParam, error) {
	tool, ok := r.GetTool(block.Name)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", block.Name)
	}

	response, err := tool.Run(ctx, block, toolCtx)

	var resultBlock anthropic.ToolResultBlockParam
	var tie ToolInputError
	if errors.As(err, &tie) {
		// Respond with an error result block to give the AI the opportunity to correct the inputs
		resultBlock = newToolResultBlockParam(block.ID, tie.Error(), true)
		log.Print("Warning: recoverable tool error, reporting to the AI to give it an opportunity to retry")
	} else if err != nil {
		return nil, fmt.Errorf("error while running tool: %w", err)
	} else if response != nil {
		resultBlock = newToolResultBlockParam(block.ID, *response, false)
	} else {
		resultBlock = newToolResultBlockParam(block.ID, "", false)
	}
	return &resultBlock, nil
}

// ReplayToolUse replays a tool use block with the appropriate tool
func (r *ToolRegistry) ReplayToolUse(ctx context.Context, toolUseBlock anthropic.ToolUseBlock, toolCtx *ToolContext) error {
	tool, ok := r.GetTool(toolUseBlock.Name)
	if !ok {
		return fmt.Errorf("unknown tool: %s", toolUseBlock.Name)
	}

	err := tool.Replay(ctx, toolUseBlock, toolCtx)

	var tie ToolInputError
	if errors.As(err, &tie) {
		// If the error is an input issue, one of two things has probably happened:
		// - The original call had an input issue, in which case that error was reported to the agent and is already
		//   in the conversation history
		// - The original call was successful but repeating it produces an expected error (e.g. cannot create a file
		//   that already exists)
		// In either case, there is no need to do anything
	} else if err != nil {
		return fmt.Errorf("error while replaying tool: %w", err)
	}
	return nil
}

// Helper function to create a ToolResultBlockParam, in contrast to anthropic.NewToolResultBlockParam which creates a
// ContentBlockParamUnion
func newToolResultBlockParam(toolID string, result string, isError bool) anthropic.ToolResultBlockParam {
	return anthropic.ToolResultBlockParam{
		ToolUseID: toolID,
		Content: []anthropic.ToolResultBlockParamContentUnion{
			{OfText: &anthropic.TextBlockParam{Text: result}},
		},
		IsError: anthropic.Bool(isError),
	}
}
