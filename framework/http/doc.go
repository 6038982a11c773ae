// Package http provides the request and response helpers used by the
// inspect server.
//
//	req := gohttp.NewRequest(r)
//	res := gohttp.NewResponse(w)
//
//	var body struct {
//	    ID string `json:"id"`
//	}
//	if err := req.Bind(&body); err != nil {
//	    res.Error(http.StatusBadRequest, err.Error())
//	    return
//	}
//
//	obj, err := app.Get(r.Context(), body.ID)
//	if err != nil {
//	    res.Fail(err) // 404 {"message": ..., "code": "AUTOWIRED_10002"}
//	    return
//	}
//	res.Success(obj)
package http
