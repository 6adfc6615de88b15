// Package recfg decodes and rewrites the ReConfig sequence: the packed
// command tape iBoot-era firmware uses to program memory-mapped registers
// during early boot.
//
// A tape is a flat little-endian byte buffer holding a series of commands
// (Meta, Read, Write32, Write64). Check walks a tape end-to-end and reports
// whether it is well-formed. Walk drives user-supplied Handlers over an
// already-valid tape and can, through the Update disposition, rewrite fields
// back into the tape in place.
package recfg
