package marketapi

import (
	"fmt"
	"net/http"
	"net/url"

	formcodec "github.com/go-playground/form/v4"

	"github.com/MarcGrol/marketplacebackend/lib/myerrors"
)

type CreateOrderRequest struct {
	Quantity int `form:"quantity"`
}

type UpdateOrderRequest struct {
	Status string `form:"status"`
}

type CreateProductRequest struct {
	Name  string `form:"name"`
	Price int    `form:"price"`
	Stock int    `form:"stock"`
}

type UpdateProductRequest struct {
	Name  string `form:"name"`
	Price int    `form:"price"`
	Stock int    `form:"stock"`
}

func CreateOrderRequestFromHTTPRequest(r *http.Request) (CreateOrderRequest, error) {
	request := CreateOrderRequest{}
	err := decodeForm(r, &request)
	if err != nil {
		return CreateOrderRequest{}, err
	}
	return request, nil
}

func UpdateOrderRequestFromHTTPRequest(r *http.Request) (UpdateOrderRequest, error) {
	request := UpdateOrderRequest{}
	err := decodeForm(r, &request)
	if err != nil {
		return UpdateOrderRequest{}, err
	}
	return request, nil
}

func CreateProductRequestFromHTTPRequest(r *http.Request) (CreateProductRequest, error) {
	request := CreateProductRequest{}
	err := decodeForm(r, &request)
	if err != nil {
		return CreateProductRequest{}, err
	}
	return request, nil
}

func UpdateProductRequestFromHTTPRequest(r *http.Request) (UpdateProductRequest, error) {
	request := UpdateProductRequest{}
	err := decodeForm(r, &request)
	if err != nil {
		return UpdateProductRequest{}, err
	}
	return request, nil
}

func decodeForm(r *http.Request, target any) error {
	err := r.ParseForm()
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}
	return decodeValues(target, r.Form)
}

func decodeValues(target any, values url.Values) error {
	err := formcodec.NewDecoder().Decode(target, values)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("error decoding form: %s", err))
	}
	return nil
}
