package service

import (
	"context"
	"sort"
	"sync"

	"go-cake-store/internal/model"
	"go-cake-store/internal/repository"

	"gorm.io/gorm"
)

// fakeCartStore is an in-memory cart store. Atomic serializes callers and
// restores the line set when fn fails, like a rolled back transaction.
type fakeCartStore struct {
	mu       sync.Mutex
	products map[uint]*model.Product
	flavors  map[[2]uint]*model.ProductFlavor
	sizes    map[[2]uint]*model.ProductSize
	lines    map[uint]*model.CartItem
	nextID   uint

	// failures are returned, in order, by the next InsertLineIfAbsent calls.
	insertFailures []error
	saveFailure    error
	atomicCalls    int
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{
		products: map[uint]*model.Product{},
		flavors:  map[[2]uint]*model.ProductFlavor{},
		sizes:    map[[2]uint]*model.ProductSize{},
		lines:    map[uint]*model.CartItem{},
	}
}

func (f *fakeCartStore) addProduct(p *model.Product) {
	f.products[p.ID] = p
}

func (f *fakeCartStore) addFlavor(tenantID, productID, flavorID uint, available bool) {
	f.flavors[[2]uint{productID, flavorID}] = &model.ProductFlavor{
		TenantID:  tenantID,
		ProductID: productID,
		FlavorID:  flavorID,
		Available: available,
	}
}

func (f *fakeCartStore) addSize(tenantID, productID, sizeID uint, modifier int64, available bool) {
	f.sizes[[2]uint{productID, sizeID}] = &model.ProductSize{
		TenantID:  tenantID,
		ProductID: productID,
		SizeID:    sizeID,
		Available: available,
		Size: &model.Size{
			BaseModel:     model.BaseModel{ID: sizeID, TenantID: tenantID},
			PriceModifier: modifier,
		},
	}
}

func (f *fakeCartStore) lineList() []model.CartItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.CartItem, 0, len(f.lines))
	for _, l := range f.lines {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeCartStore) Atomic(ctx context.Context, fn func(tx repository.CartTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.atomicCalls++

	snapshot := make(map[uint]model.CartItem, len(f.lines))
	for id, l := range f.lines {
		snapshot[id] = *l
	}
	nextID := f.nextID

	if err := fn(&fakeCartTx{f}); err != nil {
		f.lines = make(map[uint]*model.CartItem, len(snapshot))
		for id, l := range snapshot {
			l := l
			f.lines[id] = &l
		}
		f.nextID = nextID
		return err
	}
	return nil
}

func (f *fakeCartStore) ListLines(ctx context.Context, tenantID, userID uint) ([]model.CartLineView, error) {
	views := []model.CartLineView{}
	for _, l := range f.lineList() {
		if l.TenantID != tenantID || l.UserID != userID {
			continue
		}
		views = append(views, model.CartLineView{
			ID:         l.ID,
			ProductID:  l.ProductID,
			FlavorID:   l.FlavorID,
			SizeID:     l.SizeID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			TotalPrice: l.TotalPrice,
			Notes:      l.Notes,
		})
	}
	return views, nil
}

func (f *fakeCartStore) DeleteLine(ctx context.Context, tenantID, userID, lineID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lines[lineID]
	if !ok || l.TenantID != tenantID || l.UserID != userID {
		return false, nil
	}
	delete(f.lines, lineID)
	return true, nil
}

func (f *fakeCartStore) Clear(ctx context.Context, tenantID, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, l := range f.lines {
		if l.TenantID == tenantID && l.UserID == userID {
			delete(f.lines, id)
			n++
		}
	}
	return n, nil
}

type fakeCartTx struct {
	f *fakeCartStore
}

func (t *fakeCartTx) FindProduct(tenantID, productID uint) (*model.Product, error) {
	p, ok := t.f.products[productID]
	if !ok || p.TenantID != tenantID || p.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *fakeCartTx) FindProductFlavor(tenantID, productID, flavorID uint) (*model.ProductFlavor, error) {
	pf, ok := t.f.flavors[[2]uint{productID, flavorID}]
	if !ok || pf.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	return pf, nil
}

func (t *fakeCartTx) FindProductSize(tenantID, productID, sizeID uint) (*model.ProductSize, error) {
	ps, ok := t.f.sizes[[2]uint{productID, sizeID}]
	if !ok || ps.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	return ps, nil
}

func (t *fakeCartTx) InsertLineIfAbsent(line *model.CartItem) (bool, error) {
	if len(t.f.insertFailures) > 0 {
		err := t.f.insertFailures[0]
		t.f.insertFailures = t.f.insertFailures[1:]
		return false, err
	}
	for _, l := range t.f.lines {
		if l.Key() == line.Key() {
			return false, nil
		}
	}
	t.f.nextID++
	line.ID = t.f.nextID
	cp := *line
	t.f.lines[line.ID] = &cp
	return true, nil
}

func (t *fakeCartTx) LockLine(key model.CartKey) (*model.CartItem, error) {
	for _, l := range t.f.lines {
		if l.Key() == key {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (t *fakeCartTx) LockLineByID(tenantID, userID, lineID uint) (*model.CartItem, error) {
	l, ok := t.f.lines[lineID]
	if !ok || l.TenantID != tenantID || l.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (t *fakeCartTx) SaveLine(line *model.CartItem) error {
	if t.f.saveFailure != nil {
		return t.f.saveFailure
	}
	if _, ok := t.f.lines[line.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *line
	t.f.lines[line.ID] = &cp
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.CartEvent
}

func (n *recordingNotifier) NotifyCart(tenantID, userID uint, event model.CartEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) actions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Action)
	}
	return out
}

// fakeProductRepo serves a fixed catalog. List orders by id and ignores
// filters; it records the last query for assertions.
type fakeProductRepo struct {
	products  map[uint]*model.Product
	summaries []model.ProductSummary
	related   []model.ProductSummary
	topRated  []model.ProductSummary
	flavors   []model.FlavorOption
	sizes     []model.SizeOption
	reviews   []model.ReviewView
	listErr   error

	lastQuery   repository.ProductQuery
	lastExclude []uint
	lastLimit   int
}

func (r *fakeProductRepo) List(ctx context.Context, tenantID uint, q repository.ProductQuery) ([]model.ProductSummary, int64, error) {
	r.lastQuery = q
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	total := int64(len(r.summaries))
	items := []model.ProductSummary{}
	if int64(q.Offset) >= total {
		return items, total, nil
	}
	end := q.Offset + q.Limit
	if end > len(r.summaries) {
		end = len(r.summaries)
	}
	return append(items, r.summaries[q.Offset:end]...), total, nil
}

func (r *fakeProductRepo) FindByID(ctx context.Context, tenantID, productID uint) (*model.Product, error) {
	p, ok := r.products[productID]
	if !ok || p.TenantID != tenantID || p.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) FindFlavorOptions(ctx context.Context, tenantID, productID uint) ([]model.FlavorOption, error) {
	return r.flavors, nil
}

func (r *fakeProductRepo) FindSizeOptions(ctx context.Context, tenantID, productID uint) ([]model.SizeOption, error) {
	return r.sizes, nil
}

func (r *fakeProductRepo) FindReviews(ctx context.Context, tenantID, productID uint) ([]model.ReviewView, error) {
	return r.reviews, nil
}

func (r *fakeProductRepo) FindRelated(ctx context.Context, tenantID uint, ref *model.Product, limit int) ([]model.ProductSummary, error) {
	if len(r.related) > limit {
		return r.related[:limit], nil
	}
	return r.related, nil
}

func (r *fakeProductRepo) FindTopRated(ctx context.Context, tenantID uint, exclude []uint, limit int) ([]model.ProductSummary, error) {
	r.lastExclude = exclude
	r.lastLimit = limit
	skip := map[uint]bool{}
	for _, id := range exclude {
		skip[id] = true
	}
	out := []model.ProductSummary{}
	for _, p := range r.topRated {
		if len(out) == limit {
			break
		}
		if !skip[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeOptionRepo struct{}

func (fakeOptionRepo) Categories(ctx context.Context, tenantID uint) ([]model.Category, error) {
	return []model.Category{{Name: "Bolos", Slug: "bolos"}}, nil
}

func (fakeOptionRepo) Confectioners(ctx context.Context, tenantID uint) ([]model.Confectioner, error) {
	return []model.Confectioner{{Name: "Ana"}}, nil
}

func (fakeOptionRepo) Flavors(ctx context.Context, tenantID uint) ([]model.Flavor, error) {
	return []model.Flavor{{Name: "Chocolate"}, {Name: "Morango"}}, nil
}

func (fakeOptionRepo) Sizes(ctx context.Context, tenantID uint) ([]model.Size, error) {
	return []model.Size{{Name: "P"}}, nil
}
