package domain

// Record is the persisted outcome of one completed recipe run. A record is
// created exactly once, when the run completes successfully, and is
// immutable after that; corrections produce a new record whose history
// lists the superseded one.
type Record struct {
	Spec      RunSpecification `json:"run_specification"`
	Result    any              `json:"result"`
	Resources *Resources       `json:"resources,omitempty"`
	History   RevisionHistory  `json:"history,omitempty"`
	Metadata  Metadata         `json:"metadata,omitempty"`
}

func (r Record) UID() string {
	return r.Spec.UID
}

func (r Record) Name() string {
	return r.Spec.Name
}

func (r Record) Version() int {
	return r.Spec.Version
}

func (r Record) Parameters() map[string]any {
	return r.Spec.Parameters
}

func (r Record) Validate() error {
	if err := r.Spec.Validate(); err != nil {
		return err
	}
	if r.Resources != nil {
		if err := r.Resources.Validate(); err != nil {
			return err
		}
	}
	return r.History.Validate()
}
