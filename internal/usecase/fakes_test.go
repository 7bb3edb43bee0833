package usecase_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"
)

// =====================
// インメモリのRepository実装（テスト用）
// =====================

type fakeProductRepo struct {
	mu            sync.Mutex
	products      map[int64]model.Product
	categoryNames map[int64]string
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products:      map[int64]model.Product{},
		categoryNames: map[int64]string{},
	}
}

func (f *fakeProductRepo) put(p model.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) ListByCategoryID(ctx context.Context, categoryID int64) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Product{}
	for _, p := range f.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProductRepo) ListRelated(ctx context.Context, categoryID int64, excludeProductID int64, limit int) ([]model.Product, error) {
	all, _ := f.ListByCategoryID(ctx, categoryID)
	out := []model.Product{}
	for _, p := range all {
		if p.ID == excludeProductID {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeProductRepo) Search(ctx context.Context, query string) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	out := []model.Product{}
	for _, p := range f.products {
		catName := strings.ToLower(f.categoryNames[p.CategoryID])
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(catName, q) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeCategoryRepo struct {
	categories map[int64]model.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[int64]model.Category{}}
}

func (f *fakeCategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	out := []model.Category{}
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCategoryRepo) FindByID(ctx context.Context, id int64) (model.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return model.Category{}, repo.ErrNotFound
	}
	return c, nil
}

// カート。数量の加減算はDB同様にロック下で1文にまとめる。
type fakeCartRepo struct {
	mu       sync.Mutex
	nextID   int64
	lines    map[int64]model.CartLine
	products *fakeProductRepo
}

func newFakeCartRepo(products *fakeProductRepo) *fakeCartRepo {
	return &fakeCartRepo{nextID: 1, lines: map[int64]model.CartLine{}, products: products}
}

// Product込みのコピーを返す（価格は常に現在値）
func (f *fakeCartRepo) hydrate(line model.CartLine) model.CartLine {
	if p, err := f.products.FindByID(context.Background(), line.ProductID); err == nil {
		line.Product = p
	}
	return line
}

func (f *fakeCartRepo) snapshot() map[int64]model.CartLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(map[int64]model.CartLine, len(f.lines))
	for id, ln := range f.lines {
		cp[id] = ln
	}
	return cp
}

func (f *fakeCartRepo) restore(s map[int64]model.CartLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = s
}

func (f *fakeCartRepo) ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	f.mu.Lock()
	out := []model.CartLine{}
	for _, ln := range f.lines {
		if ln.UserID == userID {
			out = append(out, ln)
		}
	}
	f.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	for i := range out {
		out[i] = f.hydrate(out[i])
	}
	return out, nil
}

func (f *fakeCartRepo) FindByID(ctx context.Context, lineID int64) (model.CartLine, error) {
	f.mu.Lock()
	ln, ok := f.lines[lineID]
	f.mu.Unlock()
	if !ok {
		return model.CartLine{}, repo.ErrNotFound
	}
	return f.hydrate(ln), nil
}

func (f *fakeCartRepo) UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartLine, error) {
	f.mu.Lock()
	var found *model.CartLine
	for id := range f.lines {
		ln := f.lines[id]
		if ln.UserID == userID && ln.ProductID == productID {
			found = &ln
			break
		}
	}

	var lineID int64
	if found != nil {
		found.Quantity++
		f.lines[found.ID] = *found
		lineID = found.ID
	} else {
		lineID = f.nextID
		f.nextID++
		f.lines[lineID] = model.CartLine{ID: lineID, UserID: userID, ProductID: productID, Quantity: 1}
	}
	f.mu.Unlock()

	return f.FindByID(ctx, lineID)
}

func (f *fakeCartRepo) IncrementQuantity(ctx context.Context, lineID int64) (model.CartLine, error) {
	f.mu.Lock()
	ln, ok := f.lines[lineID]
	if !ok {
		f.mu.Unlock()
		return model.CartLine{}, repo.ErrNotFound
	}
	ln.Quantity++
	f.lines[lineID] = ln
	f.mu.Unlock()

	return f.FindByID(ctx, lineID)
}

func (f *fakeCartRepo) DecrementQuantity(ctx context.Context, lineID int64) (model.CartLine, error) {
	f.mu.Lock()
	ln, ok := f.lines[lineID]
	if !ok {
		f.mu.Unlock()
		return model.CartLine{}, repo.ErrNotFound
	}
	if ln.Quantity <= 1 {
		f.mu.Unlock()
		return model.CartLine{}, repo.ErrQuantityFloor
	}
	ln.Quantity--
	f.lines[lineID] = ln
	f.mu.Unlock()

	return f.FindByID(ctx, lineID)
}

func (f *fakeCartRepo) DeleteByID(ctx context.Context, lineID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lines[lineID]; !ok {
		return repo.ErrNotFound
	}
	delete(f.lines, lineID)
	return nil
}

func (f *fakeCartRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ln := range f.lines {
		if ln.UserID == userID {
			delete(f.lines, id)
		}
	}
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{nextID: 1, orders: map[int64]model.Order{}}
}

func (f *fakeOrderRepo) snapshot() map[int64]model.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(map[int64]model.Order, len(f.orders))
	for id, o := range f.orders {
		cp[id] = o
	}
	return cp
}

func (f *fakeOrderRepo) restore(s map[int64]model.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = s
}

func (f *fakeOrderRepo) Create(ctx context.Context, order model.Order) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = f.nextID
	f.nextID++
	f.orders[order.ID] = order
	return order.ID, nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Order{}
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type fakeOrderItemRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]model.OrderItem
	orders *fakeOrderRepo

	// テストから注入する失敗（チェックアウト途中失敗の再現用）
	failCreateBulk error
}

func newFakeOrderItemRepo(orders *fakeOrderRepo) *fakeOrderItemRepo {
	return &fakeOrderItemRepo{nextID: 1, items: map[int64]model.OrderItem{}, orders: orders}
}

func (f *fakeOrderItemRepo) snapshot() map[int64]model.OrderItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(map[int64]model.OrderItem, len(f.items))
	for id, it := range f.items {
		cp[id] = it
	}
	return cp
}

func (f *fakeOrderItemRepo) restore(s map[int64]model.OrderItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = s
}

func (f *fakeOrderItemRepo) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateBulk != nil {
		return f.failCreateBulk
	}
	for _, it := range items {
		it.ID = f.nextID
		f.nextID++
		it.OrderID = orderID
		f.items[it.ID] = it
	}
	return nil
}

func (f *fakeOrderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.OrderItem{}
	for _, it := range f.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeOrderItemRepo) ExistsByUserAndProduct(ctx context.Context, userID int64, productID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.ProductID != productID {
			continue
		}
		o, err := f.orders.FindByID(ctx, it.OrderID)
		if err == nil && o.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	nextID  int64
	reviews map[int64]model.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{nextID: 1, reviews: map[int64]model.Review{}}
}

func (f *fakeReviewRepo) Upsert(ctx context.Context, review model.Review) (model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, rv := range f.reviews {
		if rv.UserID == review.UserID && rv.ProductID == review.ProductID {
			rv.Rating = review.Rating
			rv.Comment = review.Comment
			rv.UpdatedAt = review.UpdatedAt
			f.reviews[id] = rv
			return rv, nil
		}
	}
	review.ID = f.nextID
	f.nextID++
	f.reviews[review.ID] = review
	return review, nil
}

func (f *fakeReviewRepo) FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rv := range f.reviews {
		if rv.UserID == userID && rv.ProductID == productID {
			return rv, nil
		}
	}
	return model.Review{}, repo.ErrNotFound
}

func (f *fakeReviewRepo) ListByProductID(ctx context.Context, productID int64) ([]model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Review{}
	for _, rv := range f.reviews {
		if rv.ProductID == productID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeReviewRepo) AverageRating(ctx context.Context, productID int64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum, n int
	for _, rv := range f.reviews {
		if rv.ProductID == productID {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (f *fakeReviewRepo) ExistsByUserAndProduct(ctx context.Context, userID int64, productID int64) (bool, error) {
	_, err := f.FindByUserAndProduct(ctx, userID, productID)
	if err == repo.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// =====================
// トランザクションの偽物。fnが失敗したら状態を巻き戻す。
// =====================

type fakeTxRepos struct {
	carts      *fakeCartRepo
	orders     *fakeOrderRepo
	orderItems *fakeOrderItemRepo
	products   *fakeProductRepo
}

func (r *fakeTxRepos) CartLines() repo.CartRepository       { return r.carts }
func (r *fakeTxRepos) Orders() repo.OrderRepository         { return r.orders }
func (r *fakeTxRepos) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *fakeTxRepos) Products() repo.ProductRepository     { return r.products }

type fakeTxManager struct {
	repos *fakeTxRepos
}

func newFakeTxManager(r *fakeTxRepos) *fakeTxManager {
	return &fakeTxManager{repos: r}
}

func (tm *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	cartSnap := tm.repos.carts.snapshot()
	orderSnap := tm.repos.orders.snapshot()
	itemSnap := tm.repos.orderItems.snapshot()

	if err := fn(tm.repos); err != nil {
		tm.repos.carts.restore(cartSnap)
		tm.repos.orders.restore(orderSnap)
		tm.repos.orderItems.restore(itemSnap)
		return err
	}
	return nil
}
