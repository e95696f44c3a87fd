package handlers

import (
	"mime"
	"mime/multipart"
	"net/http"

	"docshelf/services"
	"docshelf/utils"

	"github.com/gin-gonic/gin"
)

func ListDocuments(c *gin.Context) {
	folderID, err := parseOptionalID(c.Query("folderId"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "folderId "+err.Error())
		return
	}
	docs, err := getServices().Document.ListDocuments(c.Request.Context(), folderID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, docs)
}

func GetDocument(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := getServices().Document.GetDocument(c.Request.Context(), documentID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, doc)
}

// openUploads opens every part so the service can stream them. The returned
// closer must run after the service call.
func openUploads(headers []*multipart.FileHeader) ([]services.UploadFile, func(), error) {
	files := make([]services.UploadFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		files = append(files, services.UploadFile{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			Reader:      f,
		})
	}
	return files, closeAll, nil
}

func UploadDocuments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "multipart form expected")
		return
	}

	headers := append(form.File["files[]"], form.File["files"]...)
	if len(headers) == 0 {
		utils.Error(c, http.StatusBadRequest, "no files uploaded")
		return
	}

	folderID, err := parseOptionalID(c.PostForm("folderId"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "folderId "+err.Error())
		return
	}

	files, closeAll, err := openUploads(headers)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	defer closeAll()

	docs, err := getServices().Document.UploadDocuments(c.Request.Context(), currentUserID(c), services.UploadInput{
		FolderID:    folderID,
		Tags:        services.ParseTags(c.PostForm("tags")),
		Description: c.PostForm("description"),
		Files:       files,
	})
	if respondServiceError(c, err) {
		return
	}
	invalidateStats(c)
	utils.Created(c, docs)
}

func UpdateDocument(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateDocumentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	doc, err := getServices().Document.UpdateDocument(c.Request.Context(), currentUserID(c), documentID, req)
	if respondServiceError(c, err) {
		return
	}
	invalidateStats(c)
	utils.Success(c, doc)
}

func DeleteDocument(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := getServices().Document.DeleteDocument(c.Request.Context(), currentUserID(c), documentID); respondServiceError(c, err) {
		return
	}
	invalidateStats(c)
	utils.SuccessWithMessage(c, "document deleted", nil)
}

func ListVersions(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	versions, err := getServices().Document.ListVersions(c.Request.Context(), documentID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, versions)
}

func CreateVersion(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "file is required")
		return
	}
	files, closeAll, err := openUploads([]*multipart.FileHeader{header})
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	defer closeAll()

	doc, err := getServices().Document.CreateVersion(c.Request.Context(), currentUserID(c), documentID, files[0])
	if respondServiceError(c, err) {
		return
	}
	invalidateStats(c)
	utils.Created(c, doc)
}

// serveDownload streams dl with range support and closes it.
func serveDownload(c *gin.Context, dl services.FileDownload, disposition string) {
	defer dl.Content.Close()

	c.Header("Content-Type", dl.ContentType)
	c.Header("Accept-Ranges", "bytes")
	if disposition != "" {
		c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": dl.FileName}))
	}
	http.ServeContent(c.Writer, c.Request, dl.FileName, dl.ModTime, dl.Content)
}

func DownloadDocument(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	dl, err := getServices().Document.GetDownload(c.Request.Context(), currentUserID(c), documentID)
	if respondServiceError(c, err) {
		return
	}
	serveDownload(c, dl, "attachment")
}

func GetThumbnail(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	dl, err := getServices().Document.GetThumbnail(c.Request.Context(), documentID)
	if respondServiceError(c, err) {
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	serveDownload(c, dl, "")
}
