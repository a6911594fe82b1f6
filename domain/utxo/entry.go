package utxo

// Entry houses the details of an unspent transaction output: its value, its
// locking script, the height of the block that created it and whether it was
// created by a coinbase transaction.
type Entry struct {
	amount      int64
	pkScript    []byte
	blockHeight int32
	isCoinbase  bool
}

// NewEntry creates a new utxo entry.
func NewEntry(amount int64, pkScript []byte, blockHeight int32, isCoinbase bool) *Entry {
	return &Entry{
		amount:      amount,
		pkScript:    pkScript,
		blockHeight: blockHeight,
		isCoinbase:  isCoinbase,
	}
}

// Amount returns the value of the output in satoshis.
func (entry *Entry) Amount() int64 {
	return entry.amount
}

// PkScript returns the public key script of the output.
func (entry *Entry) PkScript() []byte {
	return entry.pkScript
}

// BlockHeight returns the height of the block containing the output.
func (entry *Entry) BlockHeight() int32 {
	return entry.blockHeight
}

// IsCoinbase returns whether the output was created by a coinbase transaction.
func (entry *Entry) IsCoinbase() bool {
	return entry.isCoinbase
}

// Code packs the height and coinbase flag as height<<1 | coinbase, the form
// used by every on-disk encoding of an entry.
func (entry *Entry) Code() uint32 {
	code := uint32(entry.blockHeight) << 1
	if entry.isCoinbase {
		code |= 1
	}
	return code
}

// Equal reports whether both entries describe the same output.
func (entry *Entry) Equal(other *Entry) bool {
	if entry == nil || other == nil {
		return entry == other
	}
	if entry.amount != other.amount || entry.blockHeight != other.blockHeight ||
		entry.isCoinbase != other.isCoinbase || len(entry.pkScript) != len(other.pkScript) {
		return false
	}
	for i := range entry.pkScript {
		if entry.pkScript[i] != other.pkScript[i] {
			return false
		}
	}
	return true
}
