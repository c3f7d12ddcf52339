package rom

// Zero-page scratch used by the runtime ROM's helper routines. $00-$DF is
// left entirely to user programs and the compiler's own locals; $F0-$FB is
// bus.VectorTableBase's six device-discovery pointers, so the helpers claim
// the narrow band between the two.
const (
	zpArg0   = 0xE0 // operand 1, lo byte (byte helpers use only this)
	zpArg0Hi = 0xE1 // operand 1, hi byte (int helpers)
	zpArg1   = 0xE2 // operand 2, lo byte
	zpArg1Hi = 0xE3 // operand 2, hi byte
	zpResLo  = 0xE4 // result, lo byte
	zpResHi  = 0xE5 // result, hi byte
	zpRemLo  = 0xE6 // remainder, lo byte (div-int)
	zpRemHi  = 0xE7 // remainder, hi byte
	zpCnt    = 0xE8 // loop counter

	// KeyCode/KeyReady back the get-key/wait-key helpers: the host writes a
	// key code here and sets the ready flag through Machine.FeedKey; ROM
	// code polls and clears it, the same shape as a real 8-bit micro's
	// single-slot keyboard buffer.
	KeyCode  = 0xE9
	KeyReady = 0xEA

	zpLenLo = 0xEB // memcpy/memset transfer length, lo byte
	zpLenHi = 0xEC // memcpy/memset transfer length, hi byte
)
