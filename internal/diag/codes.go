package diag

// Error code constants grouped by phase, following the teacher's
// PAR###/MOD###/TC### taxonomy but renamed to this pipeline's stages.
const (
	// Lexer (LEX0xx)
	LexBadSigil      = "LEX001"
	LexUnterminated  = "LEX002"
	LexBadEscape     = "LEX003"

	// Parser (PAR15xx per spec §4.2)
	ParUnexpectedTok = "PAR1500"
	ParMissingDelim  = "PAR1501"
	ParBadBlockKind  = "PAR1502"
	ParBadPattern    = "PAR1503"
	ParBadPathSeg    = "PAR1504"
	ParEmptyEffect   = "PAR1505"

	// Resolver / module checks (E2xxx, W21xx per spec §4.3)
	ResDupModule      = "E2000"
	ResDupExport      = "E2001"
	ResUnknownImport  = "E2002"
	ResNotExported    = "E2003"
	ResCycle          = "E2004"
	WarnUnusedImport  = "W2100"
	WarnUnusedBinding = "W2101"

	// Type checker (E31xx, W31xx per spec §4.4)
	TCUnify          = "E3000"
	TCNonExhaustive  = "E3100"
	TCUnreachable    = "W3101"
	TCNoInstance     = "E3102"
	TCAmbiguous      = "E3103"

	// HIR desugar
	HIRBadPlaceholder = "HIR001"
	HIRBadPatch       = "HIR002"

	// Kernel lowering
	KerUnsupportedRecurse = "KER001"

	// RustIR lowering
	RIRUnboundVar = "RIR001"
	RIRUnsupported = "RIR002"

	// Runtime (RUN0xx)
	RunRecursiveDef   = "RUN001"
	RunNonExhaustive  = "RUN002"
	RunCancelled      = "RUN003"

	// Pool (POOL0xx)
	PoolClosed        = "POOL001"
	PoolTimeout       = "POOL002"
	PoolHealthFailed  = "POOL003"
	PoolInvalidConfig = "POOL004"

	// Formatter (FMT0xx)
	FMTDegraded = "FMT001"
)
