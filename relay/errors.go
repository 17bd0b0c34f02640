package relay

import "errors"

// Linkage and header sanity failures.
var (
	ErrHeaderHashMis  = errors.New("header hash mismatched")
	ErrHeaderAE       = errors.New("header already exists")
	ErrHeaderTE       = errors.New("header number below genesis")
	ErrHeaderNE       = errors.New("parent header not existed")
	ErrHeaderHashNE   = errors.New("header not existed")
	ErrBlockNumberMis = errors.New("block number mismatched")
	ErrGenesisNE      = errors.New("genesis header not existed")
)

// Consensus failures. The engine error is kept in the chain.
var (
	ErrBlockBasicVF = errors.New("block basic verification failed")
	ErrDifficultyVF = errors.New("difficulty verification failed")
	ErrMixhashMis   = errors.New("mix hash mismatched")
)

// Window and canonicality failures.
var (
	ErrHeaderTO     = errors.New("header too old")
	ErrHeaderInfoNE = errors.New("header info not existed")
	ErrHeaderNC     = errors.New("header not on the canonical chain")
	ErrHeaderNS     = errors.New("header not safe yet")
)

// Receipt proof failures.
var (
	ErrProofVF   = errors.New("receipt proof verification failed")
	ErrTrieKeyNE = errors.New("trie key not existed")
	ErrRlpDcF    = errors.New("rlp decode failed")
)

// Authorization failures.
var (
	ErrAccountNP = errors.New("account has no privileges")
	ErrBadOrigin = errors.New("bad origin")
)
