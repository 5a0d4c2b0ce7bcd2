package handler

import (
	"github.com/gin-gonic/gin"

	"seo-ai-api/internal/interfaces/http/dto"
)

// GatewayHandler 网关设置处理器
type GatewayHandler struct {
	prober ConnectionProber
}

// NewGatewayHandler 创建网关处理器
func NewGatewayHandler(prober ConnectionProber) *GatewayHandler {
	return &GatewayHandler{prober: prober}
}

// TestConnection 测试网关连通性
// @Summary 测试网关连接
// @Description 使用请求中的（未保存的）地址与密钥发送固定测试提示词
// @Tags Gateway
// @Accept json
// @Produce json
// @Param body body dto.GatewayTestRequest true "网关凭据"
// @Success 200 {object} dto.Response[gateway.ProbeResult]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/gateway/test [post]
func (h *GatewayHandler) TestConnection(c *gin.Context) {
	var req dto.GatewayTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := h.prober.TestConnection(c.Request.Context(), req.Endpoint, req.APIKey)
	if err != nil {
		respondError(c, err, "gateway connection test failed")
		return
	}
	dto.Success(c, res)
}
