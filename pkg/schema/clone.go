package schema

// Clone returns a fully independent deep copy of the project.
// Commands normally share unchanged branches between snapshots; a deep
// clone is only needed when a subtree will be mutated wholesale
// (duplicate, import, reset).
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Steps = make([]*Step, len(p.Steps))
	for i, s := range p.Steps {
		cp.Steps[i] = s.Clone()
	}
	return &cp
}

// Clone returns a deep copy of the step and its fields.
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Fields = make([]*Field, len(s.Fields))
	for i, f := range s.Fields {
		cp.Fields[i] = f.Clone()
	}
	return &cp
}

// Clone returns a deep copy of the field, including its validation and
// conditional-logic records.
func (f *Field) Clone() *Field {
	if f == nil {
		return nil
	}
	cp := *f
	if f.Options != nil {
		cp.Options = make([]Option, len(f.Options))
		copy(cp.Options, f.Options)
	}
	if f.Validation != nil {
		v := *f.Validation
		if f.Validation.MinLength != nil {
			v.MinLength = IntPtr(*f.Validation.MinLength)
		}
		if f.Validation.MaxLength != nil {
			v.MaxLength = IntPtr(*f.Validation.MaxLength)
		}
		if f.Validation.Min != nil {
			v.Min = FloatPtr(*f.Validation.Min)
		}
		if f.Validation.Max != nil {
			v.Max = FloatPtr(*f.Validation.Max)
		}
		cp.Validation = &v
	}
	if f.ConditionalLogic != nil {
		cl := *f.ConditionalLogic
		cp.ConditionalLogic = &cl
	}
	return &cp
}

// ShallowCopy returns a new root with the step slice copied but the step
// pointers shared. Commands use this as the starting point and replace
// only the branches they touch.
func (p *Project) ShallowCopy() *Project {
	cp := *p
	cp.Steps = make([]*Step, len(p.Steps))
	copy(cp.Steps, p.Steps)
	return &cp
}

// ShallowCopy returns a new step with the field slice copied but the field
// pointers shared.
func (s *Step) ShallowCopy() *Step {
	cp := *s
	cp.Fields = make([]*Field, len(s.Fields))
	copy(cp.Fields, s.Fields)
	return &cp
}
