package ecs

// The Each helpers walk slots in ascending order. The slot count is captured
// up front, so entities created by fn are not visited; entities destroyed by
// fn are skipped when reached.

// Each calls fn for every entity holding an A.
func Each[A DataBlob](m *Manager, ta Type[A], fn func(Entity, A)) {
	ia := ta.Index()
	if ia < 0 {
		return
	}
	n := len(m.entities)
	for slot := 0; slot < n; slot++ {
		if !m.pool.live(uint32(slot)) || !m.masks[slot].Has(ia) {
			continue
		}
		a, _ := m.columns[ia][slot].(A)
		fn(m.entities[slot], a)
	}
}

// Each2 calls fn for every entity holding both an A and a B.
func Each2[A, B DataBlob](m *Manager, ta Type[A], tb Type[B], fn func(Entity, A, B)) {
	ia, ib := ta.Index(), tb.Index()
	if ia < 0 || ib < 0 {
		return
	}
	n := len(m.entities)
	for slot := 0; slot < n; slot++ {
		if !m.pool.live(uint32(slot)) {
			continue
		}
		mask := m.masks[slot]
		if !mask.Has(ia) || !mask.Has(ib) {
			continue
		}
		a, _ := m.columns[ia][slot].(A)
		b, _ := m.columns[ib][slot].(B)
		fn(m.entities[slot], a, b)
	}
}

// Each3 calls fn for every entity holding an A, a B and a C.
func Each3[A, B, C DataBlob](m *Manager, ta Type[A], tb Type[B], tc Type[C], fn func(Entity, A, B, C)) {
	ia, ib, ic := ta.Index(), tb.Index(), tc.Index()
	if ia < 0 || ib < 0 || ic < 0 {
		return
	}
	n := len(m.entities)
	for slot := 0; slot < n; slot++ {
		if !m.pool.live(uint32(slot)) {
			continue
		}
		mask := m.masks[slot]
		if !mask.Has(ia) || !mask.Has(ib) || !mask.Has(ic) {
			continue
		}
		a, _ := m.columns[ia][slot].(A)
		b, _ := m.columns[ib][slot].(B)
		c, _ := m.columns[ic][slot].(C)
		fn(m.entities[slot], a, b, c)
	}
}
