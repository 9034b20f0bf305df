package notebooklm

// Default endpoints. The RPC endpoint serves every remote method; which
// method runs is selected by the correlation id, not the path.
const (
	// DefaultBaseURL is the application origin the RPC endpoint hangs off.
	DefaultBaseURL = "https://notebooklm.google.com"

	// DefaultUploadBaseURL receives resumable-upload handshakes.
	DefaultUploadBaseURL = "https://notebooklm.google.com/upload"

	// batchExecutePath is the shared RPC endpoint path.
	batchExecutePath = "/_/LabsTailwindUi/data/batchexecute"
)

// RPC correlation ids, captured from the web application's network traffic.
// The backend routes on these opaque six-character strings; they change only
// when the frontend is redeployed with a new build.
const (
	rpcListNotebooks   = "wXbhsf"
	rpcCreateNotebook  = "CCqFvf"
	rpcGetNotebook     = "rLM1Ne"
	rpcDeleteNotebook  = "WWINqb"
	rpcRenameNotebook  = "s0tc2d"
	rpcNotebookSummary = "VfAZjd"

	rpcAddSource     = "izAoDd"
	rpcDeleteSource  = "tGMBJ"
	rpcRenameSource  = "repiSd"
	rpcRefreshSource = "FLmJqe"

	rpcGenerateAudio  = "AHyHrd"
	rpcGenerateSlides = "cBWeJd"
	rpcPollArtifact   = "gANuHb"

	rpcAsk = "vWNcB"
)
