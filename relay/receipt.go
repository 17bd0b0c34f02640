package relay

import (
	"errors"
	"fmt"

	"github.com/dominant-strategies/go-ethrelay/core/rawdb"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/dominant-strategies/go-ethrelay/trie"
)

// VerifyReceipt checks that proof shows a receipt in a canonical header that
// has at least NumberOfBlocksSafe blocks on top, and returns the receipt.
func (r *Relay) VerifyReceipt(proof *types.ReceiptProof) (*types.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.verifyReceipt(proof)
}

// CheckReceipt is the authority gated VerifyReceipt.
func (r *Relay) CheckReceipt(origin Origin, proof *types.ReceiptProof) (*types.Receipt, error) {
	r.mu.RLock()
	if err := r.ensureAuthority(origin); err != nil {
		r.mu.RUnlock()
		return nil, err
	}
	receipt, err := r.verifyReceipt(proof)
	r.mu.RUnlock()
	if err != nil {
		r.logger.WithFields(log.Fields{
			"origin": origin,
			"header": proof.HeaderHash,
			"index":  proof.Index,
			"err":    err,
		}).Debug("Rejected receipt proof")
		return nil, err
	}
	r.logger.WithFields(log.Fields{
		"origin": origin,
		"header": proof.HeaderHash,
		"index":  proof.Index,
	}).Info("Verified receipt proof")
	r.proofFeed.Send(VerifyProofEvent{Origin: origin, Receipt: receipt, Proof: proof})
	return receipt, nil
}

func (r *Relay) verifyReceipt(proof *types.ReceiptProof) (*types.Receipt, error) {
	info := r.cache.HeaderInfo(proof.HeaderHash)
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrHeaderInfoNE, proof.HeaderHash.Hex())
	}
	if canonical := rawdb.ReadCanonicalHash(r.db, info.Number); canonical != proof.HeaderHash {
		return nil, fmt.Errorf("%w: canonical %s at %d", ErrHeaderNC, canonical.Hex(), info.Number)
	}
	best := r.cache.HeaderInfo(rawdb.ReadBestHeaderHash(r.db))
	if best == nil {
		return nil, fmt.Errorf("%w: best header", ErrHeaderInfoNE)
	}
	if best.Number < info.Number || best.Number-info.Number < r.safe {
		return nil, fmt.Errorf("%w: best %d, have %d, safe %d", ErrHeaderNS, best.Number, info.Number, r.safe)
	}
	header := r.cache.Header(proof.HeaderHash)
	if header == nil {
		return nil, fmt.Errorf("%w: %s", ErrHeaderHashNE, proof.HeaderHash.Hex())
	}
	receipt, err := trie.VerifyReceiptProof(header.ReceiptsRoot(), proof.Index, proof.Proof)
	switch {
	case errors.Is(err, trie.ErrProofDecode), errors.Is(err, trie.ErrReceiptDecode):
		return nil, fmt.Errorf("%w: %w", ErrRlpDcF, err)
	case errors.Is(err, trie.ErrKeyNotFound):
		return nil, fmt.Errorf("%w: %w", ErrTrieKeyNE, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrProofVF, err)
	}
	receiptsVerified.Inc()
	return receipt, nil
}
