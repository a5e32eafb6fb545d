package tools

import (
	"context"
	"strings"

	"github.com/skosovsky/mcptoolkit"
)

// DefaultAddNoteMessage is reported when the result carries no message.
const DefaultAddNoteMessage = "Note added successfully"

// AddNoteInput is the input of the add-note tool.
type AddNoteInput struct {
	Content string `json:"content" jsonschema:"The text content to append"`
}

// Validate rejects blank content.
func (in AddNoteInput) Validate() error {
	if strings.TrimSpace(in.Content) == "" {
		return &mcptoolkit.InputError{Field: "content", Reason: "must not be empty"}
	}
	return nil
}

// AddNoteResponse confirms a note was added. Success defaults to true.
type AddNoteResponse struct {
	Success bool              `json:"success" yaml:"success"`
	Message string            `json:"message" yaml:"message"`
	RawData mcptoolkit.Result `json:"raw_data" yaml:"raw_data"`
}

// ReadNotesInput is the (empty) input of the read-notes tool.
type ReadNotesInput struct{}

// ReadNotesResponse holds the notes content.
type ReadNotesResponse struct {
	Content string            `json:"content" yaml:"content"`
	RawData mcptoolkit.Result `json:"raw_data" yaml:"raw_data"`
}

// AddNote is the facade for AddNoteToolID.
var AddNote = NewFacade(AddNoteToolID, func(_ AddNoteInput, res mcptoolkit.Result) AddNoteResponse {
	out := AddNoteResponse{
		Success: true,
		Message: DefaultAddNoteMessage,
		RawData: res,
	}
	if ok, isBool := res["success"].(bool); isBool {
		out.Success = ok
	}
	if msg := stringField(res, "message"); msg != nil && *msg != "" {
		out.Message = *msg
	}
	return out
})

// Notes is the facade for ReadNotesToolID. Its input may be nil.
var Notes = NewFacade(ReadNotesToolID, func(_ ReadNotesInput, res mcptoolkit.Result) ReadNotesResponse {
	return ReadNotesResponse{
		Content: textOf(res, "content"),
		RawData: res,
	}
})

// AddNoteToFile appends content to the notes.
func AddNoteToFile(ctx context.Context, c Caller, content string) (AddNoteResponse, error) {
	return AddNote.Call(ctx, c, AddNoteInput{Content: content})
}

// AddNoteToFileSync is the synchronous variant of AddNoteToFile.
func AddNoteToFileSync(ctx context.Context, c Caller, mode mcptoolkit.ExecMode, content string) (AddNoteResponse, error) {
	return AddNote.CallSync(ctx, c, mode, AddNoteInput{Content: content})
}

// ReadNotes returns the notes content.
func ReadNotes(ctx context.Context, c Caller) (ReadNotesResponse, error) {
	return Notes.Call(ctx, c, nil)
}

// ReadNotesSync is the synchronous variant of ReadNotes.
func ReadNotesSync(ctx context.Context, c Caller, mode mcptoolkit.ExecMode) (ReadNotesResponse, error) {
	return Notes.CallSync(ctx, c, mode, nil)
}
