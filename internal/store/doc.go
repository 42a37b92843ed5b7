// Package store persists what the command line tools need between runs: the
// passphrase-encrypted owner backup, one text file per recovery share, and a
// bbolt ledger of issued addresses.
//
// The wallet core never touches disk, everything here sits on top of the
// binary layouts in the backup package.
package store
