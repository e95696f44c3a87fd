package handlers

import (
	"net/http"

	"docshelf/services"
	"docshelf/utils"

	"github.com/gin-gonic/gin"
)

func SearchDocuments(c *gin.Context) {
	createdBy, err := parseOptionalID(c.Query("createdBy"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "createdBy "+err.Error())
		return
	}
	dateFrom, err := services.ParseDateParam(c.Query("dateFrom"), false)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "dateFrom: "+err.Error())
		return
	}
	dateTo, err := services.ParseDateParam(c.Query("dateTo"), true)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "dateTo: "+err.Error())
		return
	}

	docs, err := getServices().Document.SearchDocuments(c.Request.Context(), c.Query("q"), services.SearchFilters{
		FileType:  c.Query("fileType"),
		Status:    c.Query("status"),
		CreatedBy: createdBy,
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		Tags:      services.ParseTags(c.Query("tags")),
	})
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, docs)
}
