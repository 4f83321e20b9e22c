package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shorts/internal/logging"
)

type createCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type moveFileRequest struct {
	FileName string `json:"fileName" binding:"required"`
	Category string `json:"category" binding:"required"`
}

type openCategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

func (s *Server) handleListCategories(c *gin.Context) {
	categories, err := s.organizer.ListCategories()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	name, _, err := s.organizer.CreateCategory(req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{
		Success: true,
		Message: fmt.Sprintf("카테고리 '%s' 생성됨", name),
	})
}

func (s *Server) handleDeleteCategory(c *gin.Context) {
	name := c.Param("name")
	moved, err := s.organizer.DeleteCategory(name)
	if err != nil {
		respondError(c, err)
		return
	}
	logging.WithContext(c.Request.Context()).Info("category removed",
		zap.String("category", name), zap.Int("returned_files", moved))
	c.JSON(http.StatusOK, MessageResponse{
		Success: true,
		Message: fmt.Sprintf("카테고리 '%s' 삭제됨", name),
	})
}

func (s *Server) handleDownloads(c *gin.Context) {
	files, err := s.organizer.ListDownloads()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (s *Server) handleCategoryFiles(c *gin.Context) {
	files, err := s.organizer.ListCategoryFiles(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (s *Server) handleMoveFile(c *gin.Context) {
	var req moveFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := s.organizer.MoveFile(req.FileName, req.Category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{
		Success: true,
		Message: fmt.Sprintf("파일이 '%s' 카테고리로 이동됨", req.Category),
	})
}

func (s *Server) handleCreateDownloadFolder(c *gin.Context) {
	path, err := s.organizer.CreateDownloadFolder()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, FolderResponse{
		Success: true,
		Message: "다운로드 폴더가 생성되었습니다.",
		Path:    path,
	})
}

func (s *Server) handleFolderStatus(c *gin.Context) {
	status, err := s.organizer.FolderStatus()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleOpenMediaFolder(c *gin.Context) {
	if err := s.opener.Open(s.organizer.BasePath()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "폴더가 열렸습니다"})
}

func (s *Server) handleOpenCategoryFolder(c *gin.Context) {
	var req openCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	dir, err := s.organizer.CategoryPath(req.Category)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.opener.Open(dir); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "폴더가 열렸습니다"})
}

func (s *Server) handleAutoSortRules(c *gin.Context) {
	c.JSON(http.StatusOK, s.organizer.Rules())
}

func (s *Server) handleAutoSort(c *gin.Context) {
	result, err := s.organizer.AutoSort()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AutoSortResponse{
		Success: true,
		Message: fmt.Sprintf("%d개 파일 자동 분류됨", len(result.Moved)),
		Moved:   result.Moved,
		Failed:  result.Failed,
	})
}
