package blockchain

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrClosed is returned by chain operations started after Close.
var ErrClosed = errors.New("chain is closed")

// ErrorCode identifies a kind of rule violation.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrPrevBlockNotTip indicates that a block does not extend the
	// current tip.
	ErrPrevBlockNotTip ErrorCode = iota

	// ErrDuplicateBlock indicates that a block is already part of the
	// block index.
	ErrDuplicateBlock

	// ErrNoTransactions indicates that a block has no transactions.
	ErrNoTransactions

	// ErrFirstTxNotCoinbase indicates that the first transaction of a
	// block is not a coinbase.
	ErrFirstTxNotCoinbase

	// ErrMultipleCoinbases indicates that a block has a coinbase past its
	// first transaction.
	ErrMultipleCoinbases

	// ErrBadMerkleRoot indicates that the merkle root in the header does
	// not commit to the block's transactions.
	ErrBadMerkleRoot

	// ErrDuplicateTx indicates that a block contains the same transaction
	// twice.
	ErrDuplicateTx

	// ErrNoTxInputs indicates that a transaction has no inputs.
	ErrNoTxInputs

	// ErrNoTxOutputs indicates that a transaction has no outputs.
	ErrNoTxOutputs

	// ErrBadTxOutValue indicates an output value outside of the valid
	// range.
	ErrBadTxOutValue

	// ErrDuplicateTxInputs indicates that a transaction spends the same
	// output twice.
	ErrDuplicateTxInputs

	// ErrMissingTxOut indicates that an input references an output that
	// does not exist or is already spent.
	ErrMissingTxOut

	// ErrImmatureSpend indicates a spend of a coinbase output before it
	// reached maturity.
	ErrImmatureSpend

	// ErrSpendTooHigh indicates that a transaction spends more than its
	// inputs hold.
	ErrSpendTooHigh

	// ErrBadCoinbaseValue indicates that the coinbase pays more than the
	// subsidy plus fees.
	ErrBadCoinbaseValue

	// ErrOverwriteTx indicates that a block creates an output that already
	// exists unspent.
	ErrOverwriteTx

	// ErrMissingUndoData indicates that a block cannot be disconnected
	// because its undo data is not retained.
	ErrMissingUndoData

	// ErrUndoMismatch indicates that stored undo data does not match the
	// block it belongs to.
	ErrUndoMismatch

	// ErrDisconnectGenesis indicates an attempt to disconnect the genesis
	// block.
	ErrDisconnectGenesis

	// numErrorCodes is the maximum error code number used in tests.
	numErrorCodes
)

var errorCodeStrings = map[ErrorCode]string{
	ErrPrevBlockNotTip:    "ErrPrevBlockNotTip",
	ErrDuplicateBlock:     "ErrDuplicateBlock",
	ErrNoTransactions:     "ErrNoTransactions",
	ErrFirstTxNotCoinbase: "ErrFirstTxNotCoinbase",
	ErrMultipleCoinbases:  "ErrMultipleCoinbases",
	ErrBadMerkleRoot:      "ErrBadMerkleRoot",
	ErrDuplicateTx:        "ErrDuplicateTx",
	ErrNoTxInputs:         "ErrNoTxInputs",
	ErrNoTxOutputs:        "ErrNoTxOutputs",
	ErrBadTxOutValue:      "ErrBadTxOutValue",
	ErrDuplicateTxInputs:  "ErrDuplicateTxInputs",
	ErrMissingTxOut:       "ErrMissingTxOut",
	ErrImmatureSpend:      "ErrImmatureSpend",
	ErrSpendTooHigh:       "ErrSpendTooHigh",
	ErrBadCoinbaseValue:   "ErrBadCoinbaseValue",
	ErrOverwriteTx:        "ErrOverwriteTx",
	ErrMissingUndoData:    "ErrMissingUndoData",
	ErrUndoMismatch:       "ErrUndoMismatch",
	ErrDisconnectGenesis:  "ErrDisconnectGenesis",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation. The caller can use type assertions
// or errors.As to access the ErrorCode field.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

func ruleError(c ErrorCode, desc string) error {
	return errors.WithStack(RuleError{ErrorCode: c, Description: desc})
}

// IsErrorCode reports whether err is a RuleError with the given code.
func IsErrorCode(err error, c ErrorCode) bool {
	var ruleErr RuleError
	return errors.As(err, &ruleErr) && ruleErr.ErrorCode == c
}
