// Package ui implements an interactive terminal console using bubbletea's Elm architecture.
//
// The console works directly against the store, for operators:
//  1. [AccountListView] : Browse accounts with their login kind and item count
//  2. [ItemListView] : The selected account's items, seeded like the web list
//  3. [AddItemView] : Text input for a new item
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Store calls run as commands so rendering never blocks.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, a/d, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
