package list

import "time"

// Clone возвращает глубокую копию: снимок можно менять, не затрагивая оригинал.
func (l *List) Clone() *List {
	if l == nil {
		return nil
	}
	cp := *l
	cp.Sections = make([]Section, len(l.Sections))
	for i, s := range l.Sections {
		cp.Sections[i] = s.Clone()
	}
	cp.Members = append([]Member(nil), l.Members...)
	cp.Tags = append([]Tag(nil), l.Tags...)
	return &cp
}

func (s Section) Clone() Section {
	cp := s
	cp.Items = CloneItems(s.Items)
	return cp
}

func (i Item) Clone() Item {
	cp := i
	if i.ExpectedMs != nil {
		ms := *i.ExpectedMs
		cp.ExpectedMs = &ms
	}
	cp.DateDue = cloneTime(i.DateDue)
	cp.DateStarted = cloneTime(i.DateStarted)
	cp.DateCompleted = cloneTime(i.DateCompleted)
	cp.Tags = append([]Tag(nil), i.Tags...)
	cp.Assignees = append([]Assignee(nil), i.Assignees...)
	return cp
}

func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	res := make([]Item, len(items))
	for i, it := range items {
		res[i] = it.Clone()
	}
	return res
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
