// Package hook discovers project plugins and runs their lifecycle hooks.
//
// A plugin is a directory under .AuroraHeart/plugins holding a plugin.toml
// manifest and a hooks/ directory. Hook scripts are named after the event
// they handle (session-start, session-end, before-tool-call,
// after-tool-call) and end in .sh or .lua:
//
//	.AuroraHeart/plugins/notes/
//	    plugin.toml
//	    hooks/session-start.sh
//	    hooks/after-tool-call.lua
//
// Shell scripts run under bash (PowerShell on Windows) with the event
// described in AURORA_* environment variables. Lua scripts run in a
// sandboxed interpreter that sees the same variables in the global env
// table. Whatever a hook prints becomes a prompt injection.
package hook
