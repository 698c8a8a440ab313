// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the cocreate TUI.

All colors use Lip Gloss AdaptiveColor. NewTheme pins the light or dark
variant according to the configured theme, or follows the terminal background
when the theme is "auto".

# Color System (colors.go)

  - Indigo - Assistant messages and selections
  - Teal - Brand color, user messages and mentions
  - Emerald - Online backend, knowledge base enabled
  - Rose - Errors and the offline badge
  - Amber - Pending reply indicator

Each entity type has its own mention chip color, see EntityColor.

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme)
	header := theme.Header.Render("CoCreateAI")

# Animation System (animations.go)

	sp := spinner.New()
	sp.Spinner = styles.DotsSpinner.Bubble()

# Status Indicators

ASCII shapes accompany every status color:

	styles.RenderSuccess("Conversation exported")
	styles.RenderError("Backend unavailable")
*/
package styles
