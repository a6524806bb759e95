package validator

import (
	"path"
	"regexp"
	"strings"
)

// builtinModules are provided by the runtime and never appear in a manifest.
var builtinModules = setOf(
	// node
	"assert", "async_hooks", "buffer", "child_process", "cluster", "console", "constants",
	"crypto", "dgram", "dns", "domain", "events", "fs", "http", "http2", "https", "inspector",
	"module", "net", "os", "path", "perf_hooks", "process", "punycode", "querystring",
	"readline", "repl", "stream", "string_decoder", "timers", "tls", "trace_events", "tty",
	"url", "util", "v8", "vm", "wasi", "worker_threads", "zlib",
	// python
	"__future__", "abc", "argparse", "asyncio", "base64", "collections", "contextlib", "copy",
	"csv", "dataclasses", "datetime", "decimal", "enum", "functools", "glob", "hashlib",
	"heapq", "hmac", "importlib", "inspect", "io", "itertools", "json", "logging", "math",
	"operator", "pathlib", "pickle", "random", "re", "secrets", "shutil", "signal", "socket",
	"sqlite3", "statistics", "string", "struct", "subprocess", "sys", "tempfile", "textwrap",
	"threading", "time", "traceback", "typing", "unittest", "urllib", "uuid", "warnings",
	"weakref", "xml", "zoneinfo",
)

func setOf(items ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}

type sourceKind int

const (
	sourceUnknown sourceKind = iota
	sourceGo
	sourcePython
	sourceScript
)

func sourceKindOf(p string) sourceKind {
	switch strings.ToLower(path.Ext(p)) {
	case ".go":
		return sourceGo
	case ".py":
		return sourcePython
	case "":
		return sourceUnknown
	default:
		return sourceScript
	}
}

var pythonDottedName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)+$`)

// dottedModules reports whether "." separates submodules of spec. That holds
// for Python sources; with no source at hand it holds only for names that are
// valid Python dotted paths.
func dottedModules(spec string, kind sourceKind) bool {
	switch kind {
	case sourcePython:
		return true
	case sourceUnknown:
		return pythonDottedName.MatchString(spec)
	}
	return false
}

// isBuiltin reports whether spec names a runtime-provided module. Go
// standard library paths have no dot in their first element.
func isBuiltin(spec string, kind sourceKind) bool {
	if strings.HasPrefix(spec, "node:") {
		return true
	}
	first := spec
	if i := strings.Index(first, "/"); i >= 0 {
		first = first[:i]
	}
	if kind == sourceGo {
		return !strings.Contains(first, ".")
	}
	if _, ok := builtinModules[first]; ok {
		return true
	}
	if !dottedModules(spec, kind) {
		return false
	}
	if i := strings.Index(first, "."); i > 0 {
		_, ok := builtinModules[first[:i]]
		return ok
	}
	return false
}
