package ledger

// EngineVersion is the runledger engine version.
const EngineVersion = "0.1.0"
