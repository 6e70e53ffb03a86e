// Package app runs the fetchchain command line requests.
// It turns parsed flags into request chains, fans the URLs out over a bounded
// worker group and renders every reply: a coloured status line on stderr and
// the decoded body on stdout or in a file.
package app
