package models

// OwnedBy and VisibleTo decide read and write access to owned rows. Public rows are readable by everyone.

func (m Instrument) OwnedBy(uid uint64) bool   { return m.OwnerUID == uid }
func (m Instrument) VisibleTo(uid uint64) bool { return m.Public || m.OwnedBy(uid) }

func (m Strategy) OwnedBy(uid uint64) bool   { return m.OwnerUID == uid }
func (m Strategy) VisibleTo(uid uint64) bool { return m.Public || m.OwnedBy(uid) }

func (m Trade) OwnedBy(uid uint64) bool   { return m.OwnerUID == uid }
func (m Trade) VisibleTo(uid uint64) bool { return m.Public || m.OwnedBy(uid) }

func (m TradingPlan) OwnedBy(uid uint64) bool   { return m.OwnerUID == uid }
func (m TradingPlan) VisibleTo(uid uint64) bool { return m.Public || m.OwnedBy(uid) }

func (m Task) OwnedBy(uid uint64) bool   { return m.OwnerUID == uid }
func (m Task) VisibleTo(uid uint64) bool { return m.Public || m.OwnedBy(uid) }

func (m WatchList) OwnedBy(uid uint64) bool   { return m.OwnerUID == uid }
func (m WatchList) VisibleTo(uid uint64) bool { return m.Public || m.OwnedBy(uid) }

func (m Study) OwnedBy(uid uint64) bool   { return m.OwnerUID == uid }
func (m Study) VisibleTo(uid uint64) bool { return m.Public || m.OwnedBy(uid) }

// Styles without an owner are system styles: visible to all, writable by none.
func (m Style) OwnedBy(uid uint64) bool   { return m.OwnerUID != nil && *m.OwnerUID == uid }
func (m Style) VisibleTo(uid uint64) bool { return m.Public || m.OwnerUID == nil || m.OwnedBy(uid) }
