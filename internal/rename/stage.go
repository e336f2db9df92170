package rename

// Stage names the steps of the rename state machine. The outcome records the
// last stage that completed, so partial failures can be inspected directly
// instead of inferred from side effects.
type Stage string

const (
	StageRequested        Stage = "requested"
	StageTargetResolved   Stage = "target_resolved"
	StageContentRewritten Stage = "content_rewritten"
	StageFileMoved        Stage = "file_moved"
	StageCatalogUpdated   Stage = "catalog_updated"
	StageRegistryUpdated  Stage = "registry_updated"
	StageAudited          Stage = "audited"
)
