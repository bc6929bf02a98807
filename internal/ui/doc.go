// Package ui implements an interactive terminal client using bubbletea's Elm architecture.
//
// The TUI renders one view per route of the [router.Router]:
//  1. login : username and password form
//  2. register : username, email and password form
//  3. dashboard : the signed-in user and shortcuts
//  4. projects : the user's projects as a filterable list
//  5. editor : one project and its videos
//
// Every in-app move goes through [router.Router.Navigate], so the navigation guard decides where the user
// lands. The [Model] subscribes to the [events.Bus]; a ForceLogout event published by the gateway after a
// rejected credential sends the router back to the login view without consulting the guard.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help from
// charmbracelet/bubbles/help. Form views take ctrl+c to quit since q is ordinary input there.
package ui
