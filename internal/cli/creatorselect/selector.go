package creatorselect

import (
	"context"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
)

// Lister lists the signed-in user's creators
type Lister interface {
	ListCreators(ctx context.Context) ([]client.Creator, error)
}

// Selection remembers the selected creator between runs
type Selection interface {
	SelectedCreator() (string, error)
	SetSelectedCreator(id, name string) error
}

// PromptFunc asks the user to pick one of creators
type PromptFunc func(creators []client.Creator) (*client.Creator, error)

// Resolver determines which creator a command works on
type Resolver struct {
	creators  Lister
	selection Selection
	prompt    PromptFunc
	logger    zerolog.Logger
}

// New returns a Resolver that prompts with promptui
func New(creators Lister, selection Selection, logger zerolog.Logger) *Resolver {
	return &Resolver{
		creators:  creators,
		selection: selection,
		prompt:    Prompt,
		logger:    logger,
	}
}

// WithPrompt replaces the interactive prompt
func (r *Resolver) WithPrompt(prompt PromptFunc) *Resolver {
	r.prompt = prompt
	return r
}

// Resolve determines which creator to use based on the following priority:
// 1. If idOrName is provided, use that creator
// 2. If the user has a selected creator in their local config, use that
// 3. If the user has only one creator, use that
// 4. Otherwise, prompt the user to select a creator interactively
func (r *Resolver) Resolve(ctx context.Context, idOrName string) (*client.Creator, error) {
	creators, err := r.creators.ListCreators(ctx)
	if err != nil {
		return nil, err
	}

	// Priority 1: explicit creator
	if idOrName != "" {
		return Find(creators, idOrName)
	}

	// Priority 2: selected creator from user config
	selectedID, err := r.selection.SelectedCreator()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedID != "" {
		if creator, err := Find(creators, selectedID); err == nil {
			return creator, nil
		}
		// Selected creator was deleted, clear it and continue
		r.logger.Debug().Str("creator_id", selectedID).Msg("Selected creator no longer exists")
		_ = r.selection.SetSelectedCreator("", "")
	}

	// Priority 3: only one creator
	if len(creators) == 1 {
		creator := &creators[0]
		r.save(creator)
		return creator, nil
	}

	// Priority 4: prompt
	creator, err := r.prompt(creators)
	if err != nil {
		return nil, err
	}

	r.save(creator)
	return creator, nil
}

func (r *Resolver) save(creator *client.Creator) {
	if err := r.selection.SetSelectedCreator(creator.ID, creator.Name); err != nil {
		// Don't fail if we can't save, just continue
		r.logger.Warn().Err(err).Msg("Failed to save selected creator")
	}
}

// Find returns the creator whose ID matches idOrName, or else the one whose
// name matches it case-insensitively
func Find(creators []client.Creator, idOrName string) (*client.Creator, error) {
	for i := range creators {
		if creators[i].ID == idOrName {
			return &creators[i], nil
		}
	}

	for i := range creators {
		if strings.EqualFold(creators[i].Name, idOrName) {
			return &creators[i], nil
		}
	}

	return nil, fmt.Errorf("creator '%s' not found", idOrName)
}

// Prompt shows an interactive prompt for the user to select a creator
func Prompt(creators []client.Creator) (*client.Creator, error) {
	if len(creators) == 0 {
		return nil, fmt.Errorf("no creators yet. Create one with 'creatorhub creators create'")
	}

	type creatorOption struct {
		Label   string
		Creator *client.Creator
	}

	options := make([]creatorOption, len(creators))
	for i := range creators {
		creator := &creators[i]
		options[i] = creatorOption{
			Label:   fmt.Sprintf("%s (%s)", creator.Name, creator.Email),
			Creator: creator,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a creator",
		Items:     options,
		Templates: templates,
		Size:      10,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(options[index].Label), strings.ToLower(input))
		},
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("creator selection cancelled: %w", err)
	}

	return options[index].Creator, nil
}
