package types

// ProcessorState tracks how a local entity relates to its processor record.
type ProcessorState string

const (
	// ProcessorStateUnsynced is the default: no processor record exists yet
	ProcessorStateUnsynced ProcessorState = "unsynced"
	// ProcessorStateLocallyModified means a processor record exists but local edits are pending
	ProcessorStateLocallyModified ProcessorState = "locally_modified"
	// ProcessorStateSynced means the processor record matches the local entity
	ProcessorStateSynced ProcessorState = "synced"
	// ProcessorStateLocalOnly marks entities that are never sent to the processor
	ProcessorStateLocalOnly ProcessorState = "local_only"
)

// ProcessorLink is attached to every entity that can be synced to the processor.
// Synced always implies a non-empty ExternalID.
type ProcessorLink struct {
	ExternalID string         `json:"external_id,omitempty"`
	State      ProcessorState `json:"state"`
}

// NewProcessorLink returns the default Unsynced link.
func NewProcessorLink() ProcessorLink {
	return ProcessorLink{State: ProcessorStateUnsynced}
}

// LocalOnlyLink returns a link for an entity that is never synced.
func LocalOnlyLink() ProcessorLink {
	return ProcessorLink{State: ProcessorStateLocalOnly}
}

func (l ProcessorLink) HasExternalID() bool {
	return l.ExternalID != ""
}

func (l ProcessorLink) IsSynced() bool {
	return l.State == ProcessorStateSynced
}

func (l ProcessorLink) IsLocalOnly() bool {
	return l.State == ProcessorStateLocalOnly
}

// NeedsCreate reports whether the processor has no record for this entity yet.
func (l ProcessorLink) NeedsCreate() bool {
	return l.state() == ProcessorStateUnsynced
}

// NeedsUpdate reports whether a processor record exists and local edits are pending.
func (l ProcessorLink) NeedsUpdate() bool {
	return l.state() == ProcessorStateLocallyModified
}

// MarkModified moves a synced link to LocallyModified. Links without an
// external id and LocalOnly links are left untouched. It reports whether
// the state changed.
func (l *ProcessorLink) MarkModified() bool {
	if !l.HasExternalID() || l.state() != ProcessorStateSynced {
		return false
	}
	l.State = ProcessorStateLocallyModified
	return true
}

// MarkSynced records a successful processor write. An empty externalID keeps
// the current one, so update responses that do not echo the id are fine.
// It reports false when no external id is known, leaving the link unchanged.
func (l *ProcessorLink) MarkSynced(externalID string) bool {
	if externalID != "" {
		l.ExternalID = externalID
	}
	if l.ExternalID == "" {
		return false
	}
	l.State = ProcessorStateSynced
	return true
}

// state treats the zero value as Unsynced so documents stored before the
// field existed decode correctly.
func (l ProcessorLink) state() ProcessorState {
	if l.State == "" {
		return ProcessorStateUnsynced
	}
	return l.State
}
