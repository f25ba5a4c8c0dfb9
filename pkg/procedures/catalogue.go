package procedures

// Procedure names registered on the JD Logistics gateway.
const (
	EtmsRangeCheck              = "jingdong.etms.range.check"
	EtmsOrderPrint              = "jingdong.etms.order.print"
	EtmsPackageUpdate           = "jingdong.etms.package.update"
	EtmsOuterTraceQueryByBusiID = "jingdong.etms.outerTrace.queryByBusiId"
	EtmsWaybillSend             = "jingdong.etms.waybill.send"
	EtmsWaybillCodeGet          = "jingdong.etms.waybillcode.get"

	LdopSelfPickupSmsSend            = "jingdong.ldop.self.pickup.sms.send"
	LdopReceiveOrderIntercept        = "jingdong.ldop.receive.order.intercept"
	LdopReceiveTraceGet              = "jingdong.ldop.receive.trace.get"
	LdopReceivePickupOrderReceive    = "jingdong.ldop.receive.pickuporder.receive"
	LdopAbnormalApproval             = "jingdong.ldop.abnormal.approval"
	LdopAbnormalGet                  = "jingdong.ldop.abnormal.get"
	LdopWaybillQuery                 = "jingdong.ldop.waybill.query"
	LdopWaybillQuerySignatureImage   = "jingdong.ldop.waybill.querySignatureImage"
	LdopWaybillGeneralQuery          = "jingdong.ldop.waybill.generalQuery"
	LdopWaybillReceive               = "jingdong.ldop.waybill.receive"
	LdopCenterAPIEportDeclare        = "jingdong.ldop.center.api.eportdeclare"
	LdopCenterAPIReceivePaymentInfo  = "jingdong.ldop.center.api.receivePaymentInfo"
	LdopMiddleWaybillPickup          = "jingdong.ldop.middle.waybill.WaybillPickupApi"
	LdopMiddleWaybill2CTrace         = "jingdong.ldop.middle.waybill.Waybill2CTraceApi"
	LdopMiddleWaybillTrackAndTimePos = "jingdong.ldop.middle.waybill.WaybillTrackAndTimePositionApi"
	LdopDeliveryPickupReceive        = "jingdong.ldop.delivery.deliveryPickupReceive"
)

// catalogue is kept in the gateway operator's documentation order.
var catalogue = []Procedure{
	{Name: EtmsRangeCheck, Description: "Check whether an address is within JD delivery range"},
	{Name: EtmsOrderPrint, Description: "Fetch the print data of a JD express waybill"},
	{Name: EtmsPackageUpdate, Description: "Update the package count of a JD express waybill"},
	{Name: EtmsOuterTraceQueryByBusiID, Description: "Query the full trace of an external order by merchant business id"},
	{Name: EtmsWaybillSend, Description: "Submit an order to the Qinglong dispatch system"},
	{Name: EtmsWaybillCodeGet, Description: "Pre-allocate Qinglong waybill codes"},

	{Name: LdopSelfPickupSmsSend, Description: "Resend the self-pickup code SMS"},
	{Name: LdopReceiveOrderIntercept, Description: "Intercept a waybill in transit"},
	{Name: LdopReceiveTraceGet, Description: "Query logistics trace messages of a waybill"},
	{Name: LdopReceivePickupOrderReceive, Description: "Create a pickup order"},
	{Name: LdopAbnormalApproval, Description: "Approve or reject an abnormal waybill"},
	{Name: LdopAbnormalGet, Description: "Query rejected orders awaiting redelivery"},
	{Name: LdopWaybillQuery, Description: "Query weight and package count of a waybill"},
	{Name: LdopWaybillQuerySignatureImage, Description: "Query the electronic signature image of a delivered waybill"},
	{Name: LdopWaybillGeneralQuery, Description: "Query waybill information"},
	{Name: LdopWaybillReceive, Description: "Submit an order to JD Logistics"},
	{Name: LdopCenterAPIEportDeclare, Description: "Declare a waybill to customs"},
	{Name: LdopCenterAPIReceivePaymentInfo, Description: "Notify the gateway of received payment information"},
	{Name: LdopMiddleWaybillPickup, Description: "Query a pickup order"},
	{Name: LdopMiddleWaybill2CTrace, Description: "Query the full 2C logistics trace"},
	{Name: LdopMiddleWaybillTrackAndTimePos, Description: "Query the real-time position of an order"},
	{Name: LdopDeliveryPickupReceive, Description: "Create a combined delivery and pickup order"},
}
