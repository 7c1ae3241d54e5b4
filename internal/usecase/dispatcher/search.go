package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

const searchInputSelectors = `input[type="search"], input[type="text"], input[role="searchbox"]`

func (uc *UseCase) executeSearch(ctx context.Context, query string) entity.ActionResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return failure("Search query is empty.")
	}

	input := uc.findSearchInput(ctx)
	if input == nil {
		return failure("Could not find a prominent search input field on this page.")
	}

	if err := input.SetValue(ctx, query); err != nil {
		return failure(fmt.Sprintf("Could not type into the search field: %v", err))
	}

	submitted, err := input.SubmitEnclosingForm(ctx)
	if err == nil && submitted {
		return entity.ActionResult{
			Success: true,
			Message: fmt.Sprintf("Searched %q on the current site (submitted form).", query),
			Method:  entity.MethodFormSubmit,
		}
	}

	// No enclosing form: synthesize an Enter key press, then look for a
	// submit-labeled button near the input.
	_ = input.PressEnter(ctx)
	if clicked, err := input.ClickAdjacentSubmit(ctx); err == nil && clicked {
		return entity.ActionResult{
			Success: true,
			Message: fmt.Sprintf("Searched %q on the current site (clicked button).", query),
			Method:  entity.MethodButtonClick,
		}
	}

	return entity.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Set search term %q but could not submit the form automatically.", query),
		Method:  entity.MethodInputSet,
	}
}

// findSearchInput picks the best visible candidate: first an input whose
// name or id hints at search, then the first visible candidate of the
// accepted types.
func (uc *UseCase) findSearchInput(ctx context.Context) output.ElementHandle {
	inputs, err := uc.browser.QueryAll(ctx, searchInputSelectors)
	if err != nil {
		return nil
	}

	var fallback output.ElementHandle
	for _, input := range inputs {
		if !input.Visible() {
			continue
		}
		if fallback == nil {
			fallback = input
		}
		name, _ := input.Attribute("name")
		id, _ := input.Attribute("id")
		hint := strings.ToLower(name + " " + id)
		if strings.Contains(hint, "search") || strings.Contains(hint, "q") {
			return input
		}
	}
	return fallback
}
