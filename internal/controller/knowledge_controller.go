package controller

import (
	"campus_spirit_backend/internal/service"
	"campus_spirit_backend/internal/util"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
)

type KnowledgeController struct {
	knowledgeService *service.KnowledgeService
}

func NewKnowledgeController(knowledgeService *service.KnowledgeService) *KnowledgeController {
	return &KnowledgeController{knowledgeService: knowledgeService}
}

// AddChunkRequest 新增知识条目请求体
type AddChunkRequest struct {
	Content  string `json:"content" binding:"required"`
	Source   string `json:"source"`
	Category string `json:"category"`
}

// Add 新增一条校园知识
// @Summary 新增知识条目
// @Description 清洗文本并向量化入库，向量化失败时拒绝
// @Tags Knowledge
// @Accept json
// @Produce json
// @Param request body AddChunkRequest true "知识内容"
// @Success 201 {object} util.Response
// @Router /api/knowledge [post]
func (c *KnowledgeController) Add(ctx *gin.Context) {
	var req AddChunkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !c.knowledgeService.Add(req.Content, req.Source, req.Category) {
		util.Error(ctx, http.StatusUnprocessableEntity, "Content rejected: empty after cleaning or embedding unavailable")
		return
	}
	util.Created(ctx, gin.H{"added": true})
}

// Search 子串检索知识库
// @Summary 知识检索
// @Tags Knowledge
// @Produce json
// @Param q query string true "查询词"
// @Param category query string false "分类过滤"
// @Success 200 {object} util.Response
// @Router /api/knowledge/search [get]
func (c *KnowledgeController) Search(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		util.BadRequest(ctx, "query parameter q is required")
		return
	}

	chunks, err := c.knowledgeService.Search(query, ctx.Query("category"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, chunks)
}

// Import 批量导入 YAML 知识文件
// @Summary 知识导入
// @Description 上传 YAML 文件，支持扁平列表与按分类分组两种格式
// @Tags Knowledge
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "YAML 文件"
// @Success 200 {object} util.Response
// @Router /api/knowledge/import [post]
func (c *KnowledgeController) Import(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	tmpPath := filepath.Join(os.TempDir(), "knowledge_import_"+time.Now().Format("20060102150405")+".yaml")
	if err := ctx.SaveUploadedFile(file, tmpPath); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer os.Remove(tmpPath)

	imported, err := c.knowledgeService.ImportFile(tmpPath)
	if err != nil {
		util.BadRequest(ctx, "import failed: "+err.Error())
		return
	}
	util.Success(ctx, gin.H{"imported": imported})
}

// Export 导出知识库为 YAML
// @Summary 知识导出
// @Tags Knowledge
// @Produce application/x-yaml
// @Router /api/knowledge/export [get]
func (c *KnowledgeController) Export(ctx *gin.Context) {
	tmpPath := filepath.Join(os.TempDir(), "knowledge_export_"+time.Now().Format("20060102150405")+".yaml")
	if err := c.knowledgeService.ExportFile(tmpPath); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer os.Remove(tmpPath)

	ctx.FileAttachment(tmpPath, "campus_knowledge.yaml")
}

// Stats 知识库统计
// @Summary 知识库统计
// @Description 总条数、分类分布与向量化可用状态
// @Tags Knowledge
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/knowledge/stats [get]
func (c *KnowledgeController) Stats(ctx *gin.Context) {
	util.Success(ctx, c.knowledgeService.Stats())
}
