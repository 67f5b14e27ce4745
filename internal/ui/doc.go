// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI renders one view per route:
//  1. login: email and password form, ctrl+g for Google sign-in, ctrl+r to register
//  2. register: name, email and password form
//  3. catalog: movie cards with genres and stars, category selector (f), trailer modal (t), logout (x)
//  4. notfound: unknown paths
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Account and feed calls run as commands off the UI loop. Navigations they issue are collected by a [Navigator]
// and applied through the route guard when the command's message arrives.
//
// Moving the cursor within the scroll threshold of the end of the list requests the next page.
package ui
