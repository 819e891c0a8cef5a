package httppresentation

import (
	"net/http"

	appcatalog "github.com/Zhima-Mochi/vending-machine/internal/application/catalog"
	apppurchase "github.com/Zhima-Mochi/vending-machine/internal/application/purchase"
	dominv "github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
)

type createProductRequest struct {
	Name  string `json:"name"`
	Cost  int64  `json:"cost"`
	Stock int    `json:"stock"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.uc.CreateProduct.Execute(r.Context(), appcatalog.CreateCommand{
		Caller: callerFrom(r.Context()),
		Name:   req.Name,
		Cost:   req.Cost,
		Stock:  req.Stock,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProductView(p))
}

type updateProductRequest struct {
	Name  *string `json:"name"`
	Cost  *int64  `json:"cost"`
	Stock *int    `json:"stock"`
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathID(w, r, dominv.ErrNotFound)
	if !ok {
		return
	}
	var req updateProductRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.uc.UpdateProduct.Execute(r.Context(), appcatalog.UpdateCommand{
		Caller:    callerFrom(r.Context()),
		ProductID: productID,
		Patch:     dominv.Patch{Name: req.Name, Cost: req.Cost, Stock: req.Stock},
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(p))
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathID(w, r, dominv.ErrNotFound)
	if !ok {
		return
	}
	p, err := h.uc.DeleteProduct.Execute(r.Context(), appcatalog.DeleteCommand{
		Caller:    callerFrom(r.Context()),
		ProductID: productID,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(p))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathID(w, r, dominv.ErrNotFound)
	if !ok {
		return
	}
	p, err := h.uc.GetProduct.Execute(r.Context(), productID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(p))
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.uc.ListProducts.Execute(r.Context(), struct{}{})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, newProductView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type buyRequest struct {
	ProductID string `json:"product_id"`
	Amount    int    `json:"amount"`
}

func (h *Handler) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if !h.decode(w, r, &req) {
		return
	}
	receipt, err := h.uc.Buy.Execute(r.Context(), apppurchase.BuyCommand{
		Caller:    callerFrom(r.Context()),
		ProductID: req.ProductID,
		Amount:    req.Amount,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReceiptView(receipt))
}
